// Package messaging builds the notification sinks OrderPlaced events are delivered to.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"

	appordering "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/messaging/kafka"
	"github.com/storefront/backend/internal/infrastructure/messaging/rabbitmq"
	"go.uber.org/zap"
)

const LogSinkName = "log"

// LogSink writes the notification to the application log
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("admin-notifications")}
}

func (s *LogSink) Name() string {
	return LogSinkName
}

func (s *LogSink) Send(_ context.Context, n appordering.OrderPlacedNotification) error {
	s.logger.Info("New order placed",
		zap.String("event_id", n.EventID.String()),
		zap.String("order_id", n.OrderID.String()),
		zap.String("user_id", n.UserID.String()),
		zap.String("total_amount", n.TotalAmount),
		zap.Time("occurred_at", n.OccurredAt),
	)
	return nil
}

// Sinks holds the configured sinks and closes the ones that own connections
type Sinks struct {
	list    []appordering.NotificationSink
	closers []io.Closer
}

// All returns the sinks in configuration order
func (s *Sinks) All() []appordering.NotificationSink {
	return s.list
}

// Close releases broker connections
func (s *Sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildSinks creates one sink per configured name. Anything already opened
// is closed again when a later sink fails to start.
func BuildSinks(cfg config.NotificationConfig, logger *zap.Logger) (*Sinks, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sinks := &Sinks{}

	for _, name := range cfg.Sinks {
		switch name {
		case LogSinkName:
			sinks.list = append(sinks.list, NewLogSink(logger))
		case kafka.SinkName:
			k, err := kafka.NewSink(cfg.Kafka)
			if err != nil {
				_ = sinks.Close()
				return nil, err
			}
			sinks.list = append(sinks.list, k)
			sinks.closers = append(sinks.closers, k)
		case rabbitmq.SinkName:
			r, err := rabbitmq.NewSink(cfg.RabbitMQ, logger)
			if err != nil {
				_ = sinks.Close()
				return nil, err
			}
			sinks.list = append(sinks.list, r)
			sinks.closers = append(sinks.closers, r)
		default:
			_ = sinks.Close()
			return nil, fmt.Errorf("unknown notification sink %q", name)
		}
		logger.Info("notification sink enabled", zap.String("sink", name))
	}

	return sinks, nil
}
