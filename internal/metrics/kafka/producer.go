// Package kafka ships one JSON-encoded MetricsRecord per query to a Kafka
// topic, grounded on manifold's internal/tools/kafka.Writer seam
// (accepting kafka.Message values from a producer interface so tests can
// substitute a fake writer) and internal/orchestrator/kafka.go's
// marshal-then-WriteMessages shape.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Writer is the subset of *kafka.Writer this package depends on.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Sink publishes MetricsRecord values to a fixed Kafka topic.
type Sink struct {
	Producer Writer
	Topic    string
}

// NewSink constructs a *kafka.Writer targeting the given brokers/topic and
// wraps it as a domain.MetricsSink.
func NewSink(brokers []string, topic string) *Sink {
	return &Sink{
		Producer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
		Topic: topic,
	}
}

func (s *Sink) Record(ctx context.Context, rec domain.MetricsRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("metrics/kafka: marshal record: %w", err)
	}
	msg := kafkago.Message{Topic: s.Topic, Key: []byte(rec.ID), Value: payload}
	if err := s.Producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("metrics/kafka: write message: %w", err)
	}
	return nil
}
