package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"CostCast/internal/domain/models"
	"CostCast/internal/repository"
	"CostCast/internal/services/oracle"
)

// The models/ and data/ directories ship with the service; every catalog
// entry must resolve against them and produce a usable estimate.
func shippedOracle(t *testing.T) *oracle.LocalOracle {
	t.Helper()
	registry, err := oracle.LoadRegistry("../../models")
	if err != nil {
		t.Fatalf("load shipped models: %v", err)
	}
	history := repository.NewCSVHistoryStore("../../data", nil)
	t.Cleanup(func() { _ = history.Close() })

	for _, spec := range models.Catalog() {
		if _, ok := registry.Get(spec.Model); !ok {
			t.Fatalf("%s: model %s not shipped, have %v", spec.Material, spec.Model, registry.Names())
		}
		if _, err := history.Load(context.Background(), spec.Dataset); err != nil {
			t.Fatalf("%s: dataset %s: %v", spec.Material, spec.Dataset, err)
		}
	}
	return oracle.NewLocalOracle(registry, history)
}

func TestShippedForecastsShareAxisAndCoverAnchor(t *testing.T) {
	o := shippedOracle(t)
	anchor := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	var axis models.ForecastSeries
	for _, spec := range models.Catalog() {
		res, err := o.Predict(context.Background(), spec.Material, 24)
		if err != nil {
			t.Fatalf("%s: predict: %v", spec.Material, err)
		}
		v, ok := res.Full.ValueAt(anchor)
		if !ok || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s: anchor value = %v, %v", spec.Material, v, ok)
		}
		if axis == nil {
			axis = res.Full
			continue
		}
		if !res.Full.SameAxis(axis) {
			t.Fatalf("%s: %d points not on the shared axis of %d", spec.Material, len(res.Full), len(axis))
		}
	}
}

func TestShippedAssetsEstimateEveryMaterial(t *testing.T) {
	uc := NewProductEstimateUseCase(shippedOracle(t), nil, nil, nil, EstimateOptions{
		DefaultHorizon: 24,
		MaxHorizon:     240,
		Timeout:        10 * time.Second,
	})

	req := models.EstimateRequest{RequestID: "shipped", Materials: map[models.Material]models.MaterialRequest{}}
	for _, spec := range models.Catalog() {
		line := models.MaterialRequest{Material: spec.Material, Quantity: f(2)}
		if spec.AcceptsSpotPrice() {
			line.SpotPrice = f(1.5)
		}
		req.Materials[spec.Material] = line
	}

	points, err := uc.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("points = %d, want 24", len(points))
	}
	if points[0].DS != "2024-07" || points[23].DS != "2026-06" {
		t.Fatalf("window = %s..%s", points[0].DS, points[23].DS)
	}
	for _, p := range points {
		if !(p.TotalProductValue > 0) || math.IsInf(p.TotalProductValue, 0) {
			t.Fatalf("%s: total = %v", p.DS, p.TotalProductValue)
		}
	}
}
