package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"CostCast/internal/domain/models"
	"CostCast/internal/service/metrics"
	"CostCast/internal/service/ratelimit"
	"CostCast/internal/services/render"
	xhttp "CostCast/pkg/http"
	"CostCast/pkg/http/middleware"
	xlogger "CostCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Estimator is the estimate use case as seen by transport handlers.
type Estimator interface {
	Estimate(ctx context.Context, req models.EstimateRequest) ([]models.ProductValuePoint, error)
}

// RateLimit configures the per-client token bucket; zero capacity disables it.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// Check reports whether a backing service is reachable.
type Check func(ctx context.Context) error

// EstimateHandler serves the estimate endpoints.
type EstimateHandler struct {
	logger *xlogger.Logger
	uc     Estimator
	rl     *ratelimit.Limiter
	rate   RateLimit
	chart  render.ChartOptions
	checks map[string]Check
}

func NewEstimateHandler(logger *xlogger.Logger, uc Estimator, rl *ratelimit.Limiter, rate RateLimit) *EstimateHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	if rl == nil {
		rl = ratelimit.New()
	}
	return &EstimateHandler{
		logger: logger,
		uc:     uc,
		rl:     rl,
		rate:   rate,
		chart:  render.DefaultChartOptions(),
		checks: make(map[string]Check),
	}
}

// AddCheck registers a dependency checked by /ready.
func (h *EstimateHandler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

func (h *EstimateHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/status", h.Status)
	e.GET("/ready", h.Ready)
	e.GET("/help", h.Help)

	calc := h.limit("calculate")
	e.GET("/calculate", h.Calculate, calc)
	e.GET("/calculate/", h.Calculate, calc)

	plot := h.limit("plot")
	e.GET("/plot", h.Plot, plot)
	e.GET("/plot/", h.Plot, plot)
}

func (h *EstimateHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"Status": "Service Running"})
}

// Ready runs every registered check under a short deadline.
func (h *EstimateHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, results := http.StatusOK, make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("readiness check failed", xlogger.String("check", name), xlogger.Error(err))
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return c.JSON(status, map[string]interface{}{"ready": status == http.StatusOK, "checks": results})
}

func (h *EstimateHandler) Help(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Describe())
}

// Calculate returns the composite series as a bare JSON array.
func (h *EstimateHandler) Calculate(c echo.Context) error {
	points, appErrs := h.run(c, "calculate")
	if appErrs != nil {
		return xhttp.WriteErrors(c, appErrs...)
	}
	return c.JSON(http.StatusOK, points)
}

// Plot renders the same series as an SVG line chart.
func (h *EstimateHandler) Plot(c echo.Context) error {
	points, appErrs := h.run(c, "plot")
	if appErrs != nil {
		return xhttp.WriteErrors(c, appErrs...)
	}
	svg, err := render.LineChart(points, h.chart)
	if err != nil {
		metrics.Endpoint("plot").Failed("ERR_INTERNAL")
		return xhttp.WriteError(c, xhttp.InternalError("chart rendering failed").WithError(err))
	}
	return c.Blob(http.StatusOK, render.ContentTypeSVG, svg)
}

// run binds, validates and estimates; a non-nil error slice is what the client gets.
func (h *EstimateHandler) run(c echo.Context, endpoint metrics.Endpoint) ([]models.ProductValuePoint, []*xhttp.AppError) {
	start := time.Now()
	defer endpoint.Since(start)

	req := &models.EstimateQuery{}
	if appErrs := xhttp.BindQuery(c, req); appErrs != nil {
		endpoint.Failed(appErrs[0].Code)
		return nil, appErrs
	}

	requestID := middleware.GetRequestID(c)
	points, err := h.uc.Estimate(c.Request().Context(), req.ToEstimateRequest(requestID))
	if err != nil {
		appErr := ToAppError(err)
		endpoint.Failed(appErr.Code)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error(string(endpoint)+" failed", xlogger.String("request_id", requestID), xlogger.Error(err))
		}
		return nil, []*xhttp.AppError{appErr}
	}
	return points, nil
}

func (h *EstimateHandler) limit(endpoint metrics.Endpoint) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !h.rl.Allow(c.RealIP(), h.rate.Capacity, h.rate.RefillPerSec) {
				endpoint.Limited()
				return xhttp.WriteErrors(c, xhttp.TooManyRequestsError("Too many requests, slow down"))
			}
			return next(c)
		}
	}
}
