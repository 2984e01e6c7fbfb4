package oracle

import (
	"fmt"
	"sync"
	"time"

	"CostCast/internal/domain/models"
	"CostCast/pkg/util"
)

// Artifact is the on-disk description of a fitted trend+seasonality model.
type Artifact struct {
	Name  string `yaml:"name"`
	Trend struct {
		Intercept float64 `yaml:"intercept"`
		Slope     float64 `yaml:"slope"` // per month since the time origin
	} `yaml:"trend"`
	// Seasonality holds one term per calendar month, January first.
	Seasonality    []float64 `yaml:"seasonality"`
	Multiplicative bool      `yaml:"multiplicative"`
}

func (a Artifact) validate() error {
	if a.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if n := len(a.Seasonality); n != 0 && n != 12 {
		return fmt.Errorf("model %s: seasonality needs 12 monthly terms, got %d", a.Name, n)
	}
	return nil
}

// Model is a loaded artifact. Restoring the time origin mutates the model,
// so restore and inference run under one lock per model.
type Model struct {
	artifact Artifact
	mu       sync.Mutex
	origin   time.Time
}

// NewModel wraps a validated artifact.
func NewModel(a Artifact) (*Model, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &Model{artifact: a}, nil
}

// Name returns the model identifier.
func (m *Model) Name() string { return m.artifact.Name }

// Forecast predicts every history month plus horizon months past the last one.
func (m *Model) Forecast(history models.ForecastSeries, horizon int) (models.ForecastSeries, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("model %s: empty history", m.artifact.Name)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("model %s: horizon %d produces an empty window", m.artifact.Name, horizon)
	}

	dates := make([]time.Time, 0, len(history)+horizon)
	for _, p := range history {
		dates = append(dates, util.MonthStart(p.Date))
	}
	last := dates[len(dates)-1]
	for i := 1; i <= horizon; i++ {
		dates = append(dates, util.AddMonths(last, i))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.restore(history)
	return m.predict(dates), nil
}

func (m *Model) restore(history models.ForecastSeries) {
	m.origin = util.MonthStart(history[0].Date)
}

func (m *Model) predict(dates []time.Time) models.ForecastSeries {
	out := make(models.ForecastSeries, len(dates))
	for i, d := range dates {
		t := float64(util.MonthsBetween(m.origin, d))
		y := m.artifact.Trend.Intercept + m.artifact.Trend.Slope*t
		if len(m.artifact.Seasonality) == 12 {
			s := m.artifact.Seasonality[d.Month()-1]
			if m.artifact.Multiplicative {
				y *= 1 + s
			} else {
				y += s
			}
		}
		out[i] = models.ForecastPoint{Date: d, Value: y}
	}
	return out
}
