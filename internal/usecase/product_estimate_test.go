package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"CostCast/internal/domain/models"
)

func nearlyEqual(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func f(v float64) *float64 { return &v }
func i(v int) *int { return &v }

var histStart = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

// fakeOracle returns 26 history months (to Feb 2023) plus the horizon.
// Material k gets value base(k) + month index.
type fakeOracle struct {
	mu    sync.Mutex
	calls map[models.Material]int
	fail  map[models.Material]error
	block bool
}

func base(m models.Material) float64 {
	switch m {
	case models.MaterialST37:
		return 1
	case models.MaterialAlu:
		return 2
	case models.MaterialCopper:
		return 8
	default:
		return 5
	}
}

func (o *fakeOracle) Predict(ctx context.Context, m models.Material, horizon int) (models.OracleResult, error) {
	o.mu.Lock()
	if o.calls == nil {
		o.calls = map[models.Material]int{}
	}
	o.calls[m]++
	err := o.fail[m]
	o.mu.Unlock()

	if o.block {
		<-ctx.Done()
		return models.OracleResult{}, models.NewOracleError(m, "cancelled", ctx.Err())
	}
	if err != nil {
		return models.OracleResult{}, err
	}
	full := make(models.ForecastSeries, 26+horizon)
	for k := range full {
		full[k] = models.ForecastPoint{Date: histStart.AddDate(0, k, 0), Value: base(m) + float64(k)}
	}
	return models.OracleResult{Material: m, Tail: full.Tail(horizon), Full: full}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.EstimateEvent
}

func (e *fakeEvents) PublishEstimate(_ context.Context, ev models.EstimateEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *fakeEvents) Close() error { return nil }

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
	oracle   int
}

func (m *fakeMetrics) RecordEstimate(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) RecordOracleCall(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oracle++
}

func (m *fakeMetrics) RecordCacheLookup(bool) {}
func (m *fakeMetrics) RecordError(string) {}
func (m *fakeMetrics) RecordLastTotal(float64) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}

func newUC(o *fakeOracle, opts EstimateOptions) (*ProductEstimateUseCase, *fakeEvents, *fakeMetrics) {
	ev := &fakeEvents{}
	mt := &fakeMetrics{}
	return NewProductEstimateUseCase(o, mt, ev, nil, opts), ev, mt
}

func request(q models.EstimateQuery) models.EstimateRequest {
	return q.ToEstimateRequest("test")
}

func TestEstimateSingleMaterial(t *testing.T) {
	uc, ev, mt := newUC(&fakeOracle{}, EstimateOptions{})
	out, err := uc.Estimate(context.Background(), request(models.EstimateQuery{ST37: f(1000), Months: i(3)}))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	// tail starts at index 26 (Mar 2023)
	for k, p := range out {
		want := (1 + float64(26+k)) * 1000
		if !nearlyEqual(p.TotalProductValue, want) {
			t.Fatalf("point %d = %v, want %v", k, p.TotalProductValue, want)
		}
	}
	if out[0].DS != "2023-03" || out[2].DS != "2023-05" {
		t.Fatalf("dates = %s..%s", out[0].DS, out[2].DS)
	}
	if len(ev.events) != 1 || ev.events[0].Outcome != "ok" || ev.events[0].Horizon != 3 {
		t.Fatalf("events = %+v", ev.events)
	}
	if len(mt.outcomes) != 1 || mt.oracle != 1 {
		t.Fatalf("metrics = %+v", mt)
	}
}

func TestEstimateDefaultHorizon(t *testing.T) {
	uc, _, _ := newUC(&fakeOracle{}, EstimateOptions{MaxHorizon: 240})
	out, err := uc.Estimate(context.Background(), request(models.EstimateQuery{Copper: f(2)}))
	if err != nil || len(out) != 24 {
		t.Fatalf("default horizon: len=%d err=%v", len(out), err)
	}
	out, err = uc.Estimate(context.Background(), request(models.EstimateQuery{Copper: f(2), Months: i(6)}))
	if err != nil || len(out) != 6 {
		t.Fatalf("months=6: len=%d err=%v", len(out), err)
	}
}

func TestEstimateRejectsSpotWithoutWeight(t *testing.T) {
	o := &fakeOracle{}
	uc, ev, _ := newUC(o, EstimateOptions{})
	_, err := uc.Estimate(context.Background(), request(models.EstimateQuery{PST37: f(500)}))
	if models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "weight for st37 is missing while its spot price is provided" {
		t.Fatalf("message = %q", err.Error())
	}
	if len(o.calls) != 0 {
		t.Fatalf("oracle must not be called on invalid input")
	}
	if ev.events[0].Outcome != "validation" {
		t.Fatalf("event outcome = %q", ev.events[0].Outcome)
	}
}

func TestEstimateAluCoverage(t *testing.T) {
	q := models.EstimateQuery{ST37: f(1000), Alu: f(5), PST37: f(500), Months: i(2)}

	uc, _, _ := newUC(&fakeOracle{}, EstimateOptions{})
	if _, err := uc.Estimate(context.Background(), request(q)); err != nil {
		t.Fatalf("default coverage rejected alu: %v", err)
	}

	strict, _, _ := newUC(&fakeOracle{}, EstimateOptions{StrictCoverage: true})
	_, err := strict.Estimate(context.Background(), request(q))
	if err == nil || err.Error() != "spot price for alu is missing while other materials have spot prices" {
		t.Fatalf("strict coverage: %v", err)
	}
}

func TestEstimateRebasesToSpotPrice(t *testing.T) {
	uc, _, _ := newUC(&fakeOracle{}, EstimateOptions{})
	out, err := uc.Estimate(context.Background(), request(models.EstimateQuery{ST37: f(10), PST37: f(480), Months: i(2)}))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// anchor Jan 2023 is index 24, value 25; tail indexes 26, 27
	anchor := 1 + 24.0
	for k, p := range out {
		want := (1 + float64(26+k)) / anchor * 480 * 10
		if !nearlyEqual(p.TotalProductValue, want) {
			t.Fatalf("point %d = %v, want %v", k, p.TotalProductValue, want)
		}
	}
}

func TestEstimateIsAdditive(t *testing.T) {
	uc, _, _ := newUC(&fakeOracle{}, EstimateOptions{})
	ctx := context.Background()

	a, _ := uc.Estimate(ctx, request(models.EstimateQuery{ST37: f(3), Months: i(4)}))
	b, _ := uc.Estimate(ctx, request(models.EstimateQuery{Copper: f(7), Months: i(4)}))
	ab, err := uc.Estimate(ctx, request(models.EstimateQuery{ST37: f(3), Copper: f(7), Months: i(4)}))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	for k := range ab {
		if !nearlyEqual(ab[k].TotalProductValue, a[k].TotalProductValue+b[k].TotalProductValue) {
			t.Fatalf("point %d not additive", k)
		}
	}

	double, _ := uc.Estimate(ctx, request(models.EstimateQuery{ST37: f(6), Months: i(4)}))
	for k := range double {
		if !nearlyEqual(double[k].TotalProductValue, 2*a[k].TotalProductValue) {
			t.Fatalf("point %d not linear in quantity", k)
		}
	}
}

func TestEstimateOracleFailureFailsRequest(t *testing.T) {
	o := &fakeOracle{fail: map[models.Material]error{
		models.MaterialCopper: models.NewOracleError(models.MaterialCopper, "model artifact missing", nil),
	}}
	uc, _, _ := newUC(o, EstimateOptions{})
	_, err := uc.Estimate(context.Background(), request(models.EstimateQuery{ST37: f(1), Copper: f(1), Months: i(3)}))
	var ee *models.EstimateError
	if !errors.As(err, &ee) || ee.Kind != models.KindOracle || ee.Material != models.MaterialCopper {
		t.Fatalf("expected copper oracle error, got %v", err)
	}
}

func TestEstimateHorizonBounds(t *testing.T) {
	uc, _, _ := newUC(&fakeOracle{}, EstimateOptions{MaxHorizon: 12})
	for _, h := range []int{0, -1, 13} {
		_, err := uc.Estimate(context.Background(), request(models.EstimateQuery{ST37: f(1), Months: i(h)}))
		if models.KindOf(err) != models.KindComputation {
			t.Fatalf("months=%d: expected computation error, got %v", h, err)
		}
	}
}

func TestEstimateTimeout(t *testing.T) {
	uc, _, _ := newUC(&fakeOracle{block: true}, EstimateOptions{Timeout: 20 * time.Millisecond})
	start := time.Now()
	_, err := uc.Estimate(context.Background(), request(models.EstimateQuery{ST37: f(1), Months: i(3)}))
	if models.KindOf(err) != models.KindUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not honoured")
	}
}
