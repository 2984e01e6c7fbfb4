package models

import "time"

// ForecastPoint is one monthly value; Date is the first of the month in UTC.
type ForecastPoint struct {
	Date  time.Time `json:"ds"`
	Value float64   `json:"yhat1"`
}

// ForecastSeries is ordered by ascending date with no duplicates.
type ForecastSeries []ForecastPoint

// Tail returns the last n points, or the whole series when shorter.
func (s ForecastSeries) Tail(n int) ForecastSeries {
	if n <= 0 {
		return ForecastSeries{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// ValueAt returns the value dated d.
func (s ForecastSeries) ValueAt(d time.Time) (float64, bool) {
	for _, p := range s {
		if p.Date.Equal(d) {
			return p.Value, true
		}
	}
	return 0, false
}

// Scale returns a copy with every value multiplied by f.
func (s ForecastSeries) Scale(f float64) ForecastSeries {
	out := make(ForecastSeries, len(s))
	for i, p := range s {
		out[i] = ForecastPoint{Date: p.Date, Value: p.Value * f}
	}
	return out
}

// SameAxis reports whether both series carry identical dates.
func (s ForecastSeries) SameAxis(o ForecastSeries) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Date.Equal(o[i].Date) {
			return false
		}
	}
	return true
}

// OracleResult holds the forecast window and the full historical+future curve.
type OracleResult struct {
	Material Material       `json:"material"`
	Tail     ForecastSeries `json:"tail"`
	Full     ForecastSeries `json:"full"`
}

// ScaledSeries is a per-material series waiting to be weighted by quantity.
type ScaledSeries struct {
	Material Material
	Quantity float64
	Series   ForecastSeries
}

// ProductValuePoint is one entry of the public result.
type ProductValuePoint struct {
	DS                string  `json:"ds"`
	TotalProductValue float64 `json:"total_product_value"`
}

// EstimateEvent is the audit record published for each finished estimate.
// It carries request metadata only, never the computed values.
type EstimateEvent struct {
	RequestID  string    `json:"request_id"`
	Materials  []string  `json:"materials"`
	SpotPriced []string  `json:"spot_priced,omitempty"`
	Horizon    int       `json:"horizon"`
	Outcome    string    `json:"outcome"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
