package costing

import (
	"CostCast/internal/domain/models"
	"CostCast/pkg/util"
)

// Format renders the composite series in ascending month order.
func Format(total models.ForecastSeries) []models.ProductValuePoint {
	out := make([]models.ProductValuePoint, len(total))
	for i, p := range total {
		out[i] = models.ProductValuePoint{
			DS:                util.FormatYearMonth(p.Date),
			TotalProductValue: p.Value,
		}
	}
	return out
}
