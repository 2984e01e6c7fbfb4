package repository

import (
	"context"

	"CostCast/internal/domain/models"
	domrepo "CostCast/internal/domain/repository"
	pkgkafka "CostCast/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEstimate(ctx context.Context, ev models.EstimateEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.RequestID), ev)
}

// Close is a no-op; the producer is shared with the log collector and closed by the app.
func (p *KafkaEventPublisher) Close() error { return nil }

// NopEventPublisher drops events when no broker is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishEstimate(context.Context, models.EstimateEvent) error { return nil }
func (NopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NopEventPublisher{}
)
