// Package kafka publishes order notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	appordering "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const SinkName = "kafka"

// messageWriter is the subset of *kafka.Writer the sink uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes one message per placed order, keyed by order id so all
// messages for an order land on the same partition
type Sink struct {
	writer       messageWriter
	writeTimeout time.Duration
}

// NewSink creates a Kafka sink from configuration
func NewSink(cfg config.KafkaConfig) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
	}
	return newSink(w, cfg.WriteTimeout), nil
}

func newSink(w messageWriter, writeTimeout time.Duration) *Sink {
	return &Sink{writer: w, writeTimeout: writeTimeout}
}

func (s *Sink) Name() string {
	return SinkName
}

// Send publishes the notification and waits for broker acknowledgement
func (s *Sink) Send(ctx context.Context, n appordering.OrderPlacedNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("kafka: marshal notification: %w", err)
	}

	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(n.OrderID.String()),
		Value: body,
		Time:  n.OccurredAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ordering.EventTypeOrderPlaced)},
			{Key: "event_id", Value: []byte(n.EventID.String())},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the writer
func (s *Sink) Close() error {
	return s.writer.Close()
}

var _ appordering.NotificationSink = (*Sink)(nil)
