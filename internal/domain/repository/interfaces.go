package repository

import (
	"context"

	"CostCast/internal/domain/models"
)

// HistoryStore serves the monthly history a model was fitted on.
type HistoryStore interface {
	Load(ctx context.Context, dataset string) (models.ForecastSeries, error)
	Close() error
}

// EventPublisher emits estimate audit events.
type EventPublisher interface {
	PublishEstimate(ctx context.Context, ev models.EstimateEvent) error
	Close() error
}

type Metrics interface {
	RecordEstimate(outcome string)
	RecordOracleCall(material, outcome string)
	RecordCacheLookup(hit bool)
	RecordError(kind string)
	RecordLastTotal(value float64)
	RecordLatency(op string, seconds float64)
}
