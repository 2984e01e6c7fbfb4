package oracle

import (
	"context"
	"fmt"

	"CostCast/internal/domain/models"
	domrepo "CostCast/internal/domain/repository"
	domsvc "CostCast/internal/domain/service"
)

// LocalOracle forecasts with in-process models over stored history.
type LocalOracle struct {
	registry *Registry
	history  domrepo.HistoryStore
}

func NewLocalOracle(registry *Registry, history domrepo.HistoryStore) *LocalOracle {
	return &LocalOracle{registry: registry, history: history}
}

func (o *LocalOracle) Predict(ctx context.Context, material models.Material, horizon int) (models.OracleResult, error) {
	spec, ok := models.Lookup(material)
	if !ok {
		return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("unknown material %s", material), nil)
	}
	if horizon < 1 {
		return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("horizon %d produces an empty forecast window", horizon), nil)
	}
	model, ok := o.registry.Get(spec.Model)
	if !ok {
		return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("model artifact %s is not loaded", spec.Model), nil)
	}

	history, err := o.history.Load(ctx, spec.Dataset)
	if err != nil {
		return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("load dataset %s", spec.Dataset), err)
	}
	if err := ctx.Err(); err != nil {
		return models.OracleResult{}, models.NewOracleError(material, "forecast cancelled", err)
	}

	full, err := model.Forecast(history, horizon)
	if err != nil {
		return models.OracleResult{}, models.NewOracleError(material, "forecast failed", err)
	}
	return models.OracleResult{Material: material, Tail: full.Tail(horizon), Full: full}, nil
}

var _ domsvc.ForecastOracle = (*LocalOracle)(nil)
