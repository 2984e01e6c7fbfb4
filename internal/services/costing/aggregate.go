package costing

import (
	"CostCast/internal/domain/models"
	"CostCast/pkg/util"
)

// Aggregate weights each series by its quantity and sums them pointwise.
// Every series must share the same date axis, and every partial sum must
// stay finite.
func Aggregate(parts []models.ScaledSeries) (models.ForecastSeries, error) {
	if len(parts) == 0 {
		return nil, models.NewValidationError("", "at least one material must be supplied")
	}

	axis := parts[0].Series
	out := make(models.ForecastSeries, len(axis))
	for i, p := range axis {
		out[i].Date = p.Date
	}

	for _, part := range parts {
		if !part.Series.SameAxis(axis) {
			return nil, models.NewComputationError(part.Material,
				"forecast for %s has %d points on a different date axis than %s (%d points)",
				part.Material, len(part.Series), parts[0].Material, len(axis))
		}
		for i, p := range part.Series {
			out[i].Value += p.Value * part.Quantity
			if !finite(out[i].Value) {
				return nil, models.NewComputationError(part.Material,
					"estimate for %s is not a finite number at %s",
					part.Material, util.FormatYearMonth(out[i].Date))
			}
		}
	}
	return out, nil
}
