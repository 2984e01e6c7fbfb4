package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "costcast_api_latency_seconds",
		Help:    "Latency of estimate endpoints",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"endpoint"})

	failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "costcast_api_errors_total",
		Help: "Failed estimate requests by endpoint and error code",
	}, []string{"endpoint", "code"})

	limited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "costcast_api_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	}, []string{"endpoint"})
)

// Endpoint records the outcome of one public estimate route: calculate,
// plot or stream.
type Endpoint string

// Since observes the time spent since start.
func (e Endpoint) Since(start time.Time) {
	latency.WithLabelValues(string(e)).Observe(time.Since(start).Seconds())
}

func (e Endpoint) Failed(code string) {
	failures.WithLabelValues(string(e), code).Inc()
}

func (e Endpoint) Limited() {
	limited.WithLabelValues(string(e)).Inc()
}
