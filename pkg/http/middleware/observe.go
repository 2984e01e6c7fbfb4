package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "CostCast/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costcast",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "costcast",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"route", "method"})

	observeOnce sync.Once
)

// Observe logs one line per request and records route-level metrics.
// Requests slower than slow are logged at warn level.
func Observe(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	observeOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				// Render now so the status below is the one the client sees.
				c.Error(err)
			}
			took := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(route, method).Observe(took.Seconds())

			fields := []applogger.Field{
				applogger.String("method", method),
				applogger.String("route", route),
				applogger.Int("status", status),
				applogger.String("client", c.RealIP()),
				applogger.String("request_id", GetRequestID(c)),
				applogger.Duration("took", took),
			}
			switch {
			case status >= 500:
				l.Error("http request failed", fields...)
			case slow > 0 && took >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}
