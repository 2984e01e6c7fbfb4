package costing

import (
	"math"
	"testing"
	"time"

	"CostCast/internal/domain/models"
)

func nearlyEqual(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// series builds consecutive monthly points starting at from.
func series(from time.Time, values ...float64) models.ForecastSeries {
	out := make(models.ForecastSeries, len(values))
	for i, v := range values {
		out[i] = models.ForecastPoint{Date: from.AddDate(0, i, 0), Value: v}
	}
	return out
}

func f(v float64) *float64 { return &v }

func requireKind(t *testing.T, err error, kind models.ErrorKind) *models.EstimateError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := models.KindOf(err); got != kind {
		t.Fatalf("error kind = %q, want %q (%v)", got, kind, err)
	}
	return err.(*models.EstimateError)
}
