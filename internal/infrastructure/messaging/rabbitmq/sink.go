// Package rabbitmq publishes order notifications to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	appordering "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	SinkName     = "rabbitmq"
	ExchangeType = "topic"
)

// channel is the subset of *amqp.Channel the sink publishes through
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a connection and a channel with the exchange declared
type dialFunc func(cfg config.RabbitMQConfig) (*amqp.Connection, channel, error)

// Sink publishes persistent JSON messages with the configured routing key
type Sink struct {
	cfg    config.RabbitMQConfig
	dial   dialFunc
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

// NewSink connects to the broker and declares the exchange
func NewSink(cfg config.RabbitMQConfig, logger *zap.Logger) (*Sink, error) {
	return newSink(cfg, dial, logger)
}

func newSink(cfg config.RabbitMQConfig, d dialFunc, logger *zap.Logger) (*Sink, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq: url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sink{cfg: cfg, dial: d, logger: logger}

	conn, ch, err := d(cfg)
	if err != nil {
		return nil, err
	}
	s.conn, s.ch = conn, ch
	return s, nil
}

func dial(cfg config.RabbitMQConfig) (*amqp.Connection, channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: could not connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: could not declare exchange: %w", err)
	}

	return conn, ch, nil
}

func (s *Sink) Name() string {
	return SinkName
}

// Send publishes the notification. A closed channel is reopened once.
func (s *Sink) Send(ctx context.Context, n appordering.OrderPlacedNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal notification: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.EventID.String(),
		Type:         ordering.EventTypeOrderPlaced,
		Timestamp:    n.OccurredAt.UTC(),
		Body:         body,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.publish(ctx, msg)
	if errors.Is(err, amqp.ErrClosed) {
		s.logger.Warn("rabbitmq channel closed, reconnecting", zap.String("exchange", s.cfg.Exchange))
		if rerr := s.reconnect(); rerr != nil {
			return rerr
		}
		err = s.publish(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (s *Sink) publish(ctx context.Context, msg amqp.Publishing) error {
	return s.ch.PublishWithContext(ctx,
		s.cfg.Exchange,   // exchange
		s.cfg.RoutingKey, // routing key
		false,            // mandatory
		false,            // immediate
		msg,
	)
}

func (s *Sink) reconnect() error {
	s.closeLocked()
	conn, ch, err := s.dial(s.cfg)
	if err != nil {
		return err
	}
	s.conn, s.ch = conn, ch
	return nil
}

// Close closes the channel and the connection
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Sink) closeLocked() error {
	var errs []error
	if s.ch != nil {
		if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		s.ch = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		s.conn = nil
	}
	return errors.Join(errs...)
}

var _ appordering.NotificationSink = (*Sink)(nil)
