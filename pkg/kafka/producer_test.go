package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)

	payload := map[string]interface{}{"material": "st37", "months": 3}
	if err := p.Publish(context.Background(), "events", []byte("req-1"), payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("got %d messages", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "events" || string(m.Key) != "req-1" || m.Time.IsZero() {
		t.Fatalf("unexpected message %+v", m)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(m.Value, &decoded); err != nil {
		t.Fatalf("value not json: %v", err)
	}
	if decoded["material"] != "st37" {
		t.Fatalf("decoded %v", decoded)
	}
}

func TestPublishErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom})
	if err := p.Publish(context.Background(), "t", nil, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}

	w := &fakeWriter{}
	if err := NewProducerWithWriter(w).Publish(context.Background(), "t", nil, make(chan int)); err == nil || len(w.msgs) != 0 {
		t.Fatalf("unencodable value must not be written, err=%v", err)
	}
}

func TestNewProducerConfig(t *testing.T) {
	if _, err := NewProducer(Config{}); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewProducer(Config{Brokers: []string{"k:9092"}, Compression: "brotli"}); err == nil {
		t.Fatalf("expected error for unknown compression")
	}
	p, err := NewProducer(Config{Brokers: []string{"k:9092"}, Compression: "none"})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	w := p.w.(*kafka.Writer)
	if w.Compression != 0 {
		t.Fatalf("compression = %v", w.Compression)
	}
	_ = p.Close()
}
