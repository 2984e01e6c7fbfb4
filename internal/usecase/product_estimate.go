package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CostCast/internal/domain/models"
	domrepo "CostCast/internal/domain/repository"
	domsvc "CostCast/internal/domain/service"
	"CostCast/internal/services/costing"
	applogger "CostCast/pkg/logger"
)

// EstimateOptions tunes the estimate pipeline.
type EstimateOptions struct {
	DefaultHorizon int
	MaxHorizon     int
	Timeout        time.Duration
	StrictCoverage bool
	Anchor         time.Time
}

// ProductEstimateUseCase turns a bill of materials into a composite cost forecast.
type ProductEstimateUseCase struct {
	validator *costing.Validator
	rebaser   *costing.Rebaser
	oracle    domsvc.ForecastOracle
	metrics   domrepo.Metrics
	events    domrepo.EventPublisher
	logger    *applogger.Logger
	opts      EstimateOptions
}

func NewProductEstimateUseCase(
	oracle domsvc.ForecastOracle,
	metrics domrepo.Metrics,
	events domrepo.EventPublisher,
	logger *applogger.Logger,
	opts EstimateOptions,
) *ProductEstimateUseCase {
	if opts.DefaultHorizon <= 0 {
		opts.DefaultHorizon = 24
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &ProductEstimateUseCase{
		validator: costing.NewValidator(opts.StrictCoverage),
		rebaser:   costing.NewRebaser(opts.Anchor),
		oracle:    oracle,
		metrics:   metrics,
		events:    events,
		logger:    logger,
		opts:      opts,
	}
}

// Estimate validates req, forecasts every requested material concurrently and
// returns the weighted monthly total. Any failing material fails the request.
func (uc *ProductEstimateUseCase) Estimate(ctx context.Context, req models.EstimateRequest) ([]models.ProductValuePoint, error) {
	start := time.Now()
	horizon := 0

	points, err := uc.estimate(ctx, req, &horizon)

	uc.finish(ctx, req, horizon, start, points, err)
	return points, err
}

func (uc *ProductEstimateUseCase) estimate(ctx context.Context, req models.EstimateRequest, horizon *int) ([]models.ProductValuePoint, error) {
	if err := uc.validator.Validate(req); err != nil {
		return nil, err
	}
	h, err := costing.ResolveHorizon(req.Horizon, uc.opts.DefaultHorizon, uc.opts.MaxHorizon)
	if err != nil {
		return nil, err
	}
	*horizon = h

	lines := requestedLines(req)

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.opts.Timeout)
	defer cancel()

	type item struct {
		idx    int
		series models.ScaledSeries
		err    error
	}
	ch := make(chan item, len(lines))
	var wg sync.WaitGroup

	for i, line := range lines {
		wg.Add(1)
		go func(i int, line models.MaterialRequest) {
			defer wg.Done()
			s, err := uc.forecastLine(ctx, line, h)
			ch <- item{idx: i, series: s, err: err}
		}(i, line)
	}

	go func() { wg.Wait(); close(ch) }()

	parts := make([]models.ScaledSeries, len(lines))
	errs := make([]error, len(lines))
	for received := 0; received < len(lines); {
		select {
		case it, ok := <-ch:
			if !ok {
				received = len(lines)
				continue
			}
			parts[it.idx], errs[it.idx] = it.series, it.err
			received++
		case <-ctx.Done():
			return nil, models.NewUnavailableError("estimate did not finish in time", ctx.Err())
		}
	}

	// first failure in catalog order
	for _, err := range errs {
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, models.NewUnavailableError("estimate did not finish in time", err)
			}
			return nil, err
		}
	}

	total, err := costing.Aggregate(parts)
	if err != nil {
		return nil, err
	}
	return costing.Format(total), nil
}

// forecastLine fetches one material and applies the spot price when present.
func (uc *ProductEstimateUseCase) forecastLine(ctx context.Context, line models.MaterialRequest, horizon int) (models.ScaledSeries, error) {
	start := time.Now()
	res, err := uc.oracle.Predict(ctx, line.Material, horizon)
	uc.recordOracle(line.Material, start, err)
	if err != nil {
		return models.ScaledSeries{}, err
	}

	series := res.Tail
	if line.SpotPrice != nil {
		series, err = uc.rebaser.Rebase(line.Material, res.Full, *line.SpotPrice, horizon)
		if err != nil {
			return models.ScaledSeries{}, err
		}
	}
	if len(series) != horizon {
		return models.ScaledSeries{}, models.NewComputationError(line.Material,
			"forecast for %s has %d points, want %d", line.Material, len(series), horizon)
	}
	return models.ScaledSeries{Material: line.Material, Quantity: *line.Quantity, Series: series}, nil
}

func requestedLines(req models.EstimateRequest) []models.MaterialRequest {
	var lines []models.MaterialRequest
	for _, spec := range models.Catalog() {
		if line, ok := req.Materials[spec.Material]; ok && line.Requested() {
			lines = append(lines, line)
		}
	}
	return lines
}

func (uc *ProductEstimateUseCase) recordOracle(m models.Material, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	uc.metrics.RecordOracleCall(string(m), outcome)
	uc.metrics.RecordLatency("oracle_predict", time.Since(start).Seconds())
}

func (uc *ProductEstimateUseCase) finish(ctx context.Context, req models.EstimateRequest, horizon int, start time.Time, points []models.ProductValuePoint, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(models.KindOf(err))
		if outcome == "" {
			outcome = "internal"
		}
	}
	elapsed := time.Since(start)

	if uc.metrics != nil {
		uc.metrics.RecordEstimate(outcome)
		uc.metrics.RecordLatency("estimate", elapsed.Seconds())
		if err != nil {
			uc.metrics.RecordError(outcome)
		} else if len(points) > 0 {
			uc.metrics.RecordLastTotal(points[len(points)-1].TotalProductValue)
		}
	}

	ev := models.EstimateEvent{
		RequestID:  req.RequestID,
		Horizon:    horizon,
		Outcome:    outcome,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	for _, spec := range models.Catalog() {
		line, ok := req.Materials[spec.Material]
		if !ok {
			continue
		}
		if line.Requested() {
			ev.Materials = append(ev.Materials, string(spec.Material))
		}
		if line.SpotPrice != nil {
			ev.SpotPriced = append(ev.SpotPriced, string(spec.Material))
		}
	}

	if err != nil {
		uc.logger.Warn("estimate failed",
			applogger.String("request_id", req.RequestID),
			applogger.String("kind", outcome),
			applogger.Strings("materials", ev.Materials),
			applogger.Error(err),
		)
	} else {
		uc.logger.Info("estimate ok",
			applogger.String("request_id", req.RequestID),
			applogger.Strings("materials", ev.Materials),
			applogger.Int("horizon", horizon),
			applogger.Duration("duration_ms", elapsed),
		)
	}

	if uc.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if perr := uc.events.PublishEstimate(pctx, ev); perr != nil {
		uc.logger.Warn("publish estimate event failed",
			applogger.String("request_id", req.RequestID),
			applogger.Error(perr),
		)
	}
}
