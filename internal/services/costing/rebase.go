package costing

import (
	"fmt"
	"time"

	"CostCast/internal/domain/models"
	"CostCast/pkg/util"
)

// DefaultAnchor is the month spot prices are quoted against.
var DefaultAnchor = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// Rebaser rescales a forecast so its anchor month equals a spot price.
type Rebaser struct {
	anchor time.Time
}

// NewRebaser returns a Rebaser for anchor, truncated to its month.
func NewRebaser(anchor time.Time) *Rebaser {
	if anchor.IsZero() {
		anchor = DefaultAnchor
	}
	return &Rebaser{anchor: util.MonthStart(anchor)}
}

// Anchor returns the rebasing month.
func (r *Rebaser) Anchor() time.Time { return r.anchor }

// Rebase multiplies full by spot/anchorValue and returns the last horizon points.
func (r *Rebaser) Rebase(m models.Material, full models.ForecastSeries, spot float64, horizon int) (models.ForecastSeries, error) {
	anchorValue, ok := full.ValueAt(r.anchor)
	if !ok {
		return nil, models.NewOracleError(m, fmt.Sprintf("forecast for %s does not cover anchor month %s", m, util.FormatYearMonth(r.anchor)), nil)
	}
	if anchorValue == 0 {
		return nil, models.NewComputationError(m, "forecast for %s is zero at anchor month %s", m, util.FormatYearMonth(r.anchor))
	}
	return full.Scale(spot / anchorValue).Tail(horizon), nil
}
