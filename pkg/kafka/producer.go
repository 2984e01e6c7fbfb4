package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "costcast_kafka_published_total",
		Help: "Messages handed to the Kafka writer, by topic and result",
	}, []string{"topic", "result"})
	publishSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "costcast_kafka_publish_seconds",
		Help:    "Time spent in WriteMessages",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"topic"})
)

var codecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// Config selects the brokers and delivery guarantees of the producer.
type Config struct {
	Brokers []string
	// RequiredAcks follows kafka semantics: -1 all replicas, 0 none, 1 leader.
	RequiredAcks int
	// Compression is gzip, snappy, lz4, zstd or none.
	Compression  string
	WriteTimeout time.Duration
	// Async makes Publish return before the broker acknowledges.
	Async bool
}

// Writer is the part of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON documents. One instance carries both estimate
// events and collected logs.
type Producer struct {
	w Writer
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		WriteTimeout: cfg.WriteTimeout,
		MaxAttempts:  3,
		BatchTimeout: time.Second,
		Async:        cfg.Async,
	}
	if cfg.Compression != "" && cfg.Compression != "none" {
		codec, ok := codecs[cfg.Compression]
		if !ok {
			return nil, fmt.Errorf("kafka: unknown compression %q", cfg.Compression)
		}
		w.Compression = codec
	}
	return NewProducerWithWriter(w), nil
}

// NewProducerWithWriter wraps w; tests pass a fake.
func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{w: w}
}

// Publish marshals v to JSON and writes it to topic. A nil key lets the
// balancer spread messages.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kafka: encode %s message: %w", topic, err)
	}

	start := time.Now()
	err = p.w.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: body, Time: start})
	publishSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedTotal.WithLabelValues(topic, result).Inc()
	return err
}

func (p *Producer) Close() error { return p.w.Close() }
