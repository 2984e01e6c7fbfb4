package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"CostCast/internal/domain/models"
	pkgkafka "CostCast/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct{ msgs []kafka.Message }

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaEventPublisherKeysByRequestID(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w), "costcast.estimates")

	ev := models.EstimateEvent{
		RequestID: "req-42",
		Materials: []string{"st37"},
		Horizon:   3,
		Outcome:   "ok",
		Timestamp: time.Now().UTC(),
	}
	if err := p.PublishEstimate(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "req-42" || w.msgs[0].Topic != "costcast.estimates" {
		t.Fatalf("unexpected messages %+v", w.msgs)
	}
	var decoded models.EstimateEvent
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Horizon != 3 || decoded.Outcome != "ok" {
		t.Fatalf("decoded = %+v", decoded)
	}
}
