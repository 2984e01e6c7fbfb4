package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	estimates    *prometheus.CounterVec
	oracleCalls  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastTotal    prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg falls back to the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		estimates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcast_estimates_total",
				Help: "Total number of product estimates by outcome",
			},
			[]string{"outcome"},
		),
		oracleCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcast_oracle_calls_total",
				Help: "Total number of forecast oracle calls",
			},
			[]string{"material", "outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcast_oracle_cache_lookups_total",
				Help: "Oracle cache lookups by result",
			},
			[]string{"result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
		lastTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "costcast_last_horizon_total",
				Help: "Total product value at the end of the most recent estimate",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "costcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEstimate records a finished estimate by outcome (ok, validation, ...).
func (r *Recorder) RecordEstimate(outcome string) {
	r.estimates.WithLabelValues(outcome).Inc()
}

// RecordOracleCall records one oracle prediction for a material.
func (r *Recorder) RecordOracleCall(material, outcome string) {
	r.oracleCalls.WithLabelValues(material, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastTotal records the final value of the latest composite series.
func (r *Recorder) RecordLastTotal(value float64) {
	r.lastTotal.Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
