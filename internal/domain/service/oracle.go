package service

import (
	"context"

	"CostCast/internal/domain/models"
)

// ForecastOracle predicts a material's price for horizon months past its history.
type ForecastOracle interface {
	Predict(ctx context.Context, material models.Material, horizon int) (models.OracleResult, error)
}
