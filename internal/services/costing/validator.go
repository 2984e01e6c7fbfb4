package costing

import (
	"math"

	"CostCast/internal/domain/models"
)

// exclusionKeys are the non-material keys dropped when deriving spot-price
// relevant materials. alu and copper sit here too, which exempts them from
// the all-or-nothing spot price rule.
var exclusionKeys = map[string]struct{}{
	"labour_hours": {},
	"alu":          {},
	"months":       {},
	"copper":       {},
}

// Validator enforces the pairing rules between quantities and spot prices.
type Validator struct {
	strictCoverage bool
}

// NewValidator returns a Validator. With strictCoverage every requested
// material must carry a spot price once any spot price is supplied.
func NewValidator(strictCoverage bool) *Validator {
	return &Validator{strictCoverage: strictCoverage}
}

// Validate checks req in catalog order and returns the first violation
// as a validation EstimateError.
func (v *Validator) Validate(req models.EstimateRequest) error {
	for m := range req.Materials {
		if _, ok := models.Lookup(m); !ok {
			return models.NewValidationError(m, "unknown material %s", m)
		}
	}

	catalog := models.Catalog()
	anySpot := false

	for _, spec := range catalog {
		line, ok := req.Materials[spec.Material]
		if !ok {
			continue
		}
		if line.Quantity != nil && !finite(*line.Quantity) {
			return models.NewValidationError(spec.Material, "quantity for %s must be a finite number", spec.Material)
		}
		if line.Quantity != nil && !(*line.Quantity > 0) {
			return models.NewValidationError(spec.Material, "quantity for %s must be positive", spec.Material)
		}
		if line.SpotPrice == nil {
			continue
		}
		if !spec.AcceptsSpotPrice() {
			return models.NewValidationError(spec.Material, "%s does not accept a spot price", spec.Material)
		}
		if !finite(*line.SpotPrice) {
			return models.NewValidationError(spec.Material, "spot price for %s must be a finite number", spec.Material)
		}
		if !(*line.SpotPrice > 0) {
			return models.NewValidationError(spec.Material, "spot price for %s must be positive", spec.Material)
		}
		if !line.Requested() {
			return models.NewValidationError(spec.Material, "weight for %s is missing while its spot price is provided", spec.Material)
		}
		anySpot = true
	}

	if anySpot {
		for _, spec := range catalog {
			line, ok := req.Materials[spec.Material]
			if !ok || !line.Requested() || line.SpotPrice != nil {
				continue
			}
			if v.exempt(spec) {
				continue
			}
			return models.NewValidationError(spec.Material, "spot price for %s is missing while other materials have spot prices", spec.Material)
		}
	}

	for _, spec := range catalog {
		if line, ok := req.Materials[spec.Material]; ok && line.Requested() {
			return nil
		}
	}
	return models.NewValidationError("", "at least one material must be supplied")
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

func (v *Validator) exempt(spec models.MaterialSpec) bool {
	if v.strictCoverage {
		return false
	}
	_, ok := exclusionKeys[spec.Key]
	return ok
}
