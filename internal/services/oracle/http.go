package oracle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CostCast/internal/domain/models"
	domsvc "CostCast/internal/domain/service"
	xhttp "CostCast/pkg/http"
	"CostCast/pkg/util"
)

// HTTPOracle asks the model service for forecasts.
type HTTPOracle struct {
	client *xhttp.JSONClient
}

// NewHTTPOracle targets the model service at serviceURL.
func NewHTTPOracle(serviceURL string, timeout time.Duration, retries int) *HTTPOracle {
	return &HTTPOracle{client: xhttp.NewJSONClient(serviceURL, timeout, retries)}
}

type forecastReq struct {
	Model   string `json:"model"`
	Dataset string `json:"dataset"`
	Periods int    `json:"periods"`
	History bool   `json:"history"`
}

type forecastResp struct {
	Forecast []struct {
		DS    string  `json:"ds"`
		YHat1 float64 `json:"yhat1"`
	} `json:"forecast"`
}

func (o *HTTPOracle) Predict(ctx context.Context, material models.Material, horizon int) (models.OracleResult, error) {
	spec, ok := models.Lookup(material)
	if !ok {
		return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("unknown material %s", material), nil)
	}
	if horizon < 1 {
		return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("horizon %d produces an empty forecast window", horizon), nil)
	}

	var resp forecastResp
	req := forecastReq{Model: spec.Model, Dataset: spec.Dataset, Periods: horizon, History: true}
	if err := o.client.Post(ctx, "/forecast", req, &resp); err != nil {
		return models.OracleResult{}, models.NewOracleError(material, "model service request failed", err)
	}

	full := make(models.ForecastSeries, 0, len(resp.Forecast))
	for _, p := range resp.Forecast {
		d, ok := util.ParseTime(p.DS)
		if !ok {
			return models.OracleResult{}, models.NewOracleError(material, fmt.Sprintf("model service returned bad date %q", p.DS), nil)
		}
		full = append(full, models.ForecastPoint{Date: util.MonthStart(d), Value: p.YHat1})
	}
	sort.SliceStable(full, func(i, j int) bool { return full[i].Date.Before(full[j].Date) })

	if len(full) < horizon {
		return models.OracleResult{}, models.NewOracleError(material,
			fmt.Sprintf("model service returned %d points for a %d month window", len(full), horizon), nil)
	}
	return models.OracleResult{Material: material, Tail: full.Tail(horizon), Full: full}, nil
}

var _ domsvc.ForecastOracle = (*HTTPOracle)(nil)
