package costing

import "CostCast/internal/domain/models"

// ResolveHorizon applies the default and rejects values outside [1, max].
func ResolveHorizon(requested *int, def, max int) (int, error) {
	h := def
	if requested != nil {
		h = *requested
	}
	if h < 1 {
		return 0, models.NewComputationError("", "forecast horizon must be at least 1 month, got %d", h)
	}
	if max > 0 && h > max {
		return 0, models.NewComputationError("", "forecast horizon must not exceed %d months, got %d", max, h)
	}
	return h, nil
}
