package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// OrderPlacedNotification is the message delivered to administrators
type OrderPlacedNotification struct {
	EventID     uuid.UUID `json:"event_id"`
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	TotalAmount string    `json:"total_amount"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NotificationSink delivers order notifications to an external channel
type NotificationSink interface {
	Name() string
	Send(ctx context.Context, n OrderPlacedNotification) error
}

// OrderPlacedNotificationHandler handles OrderPlacedEvent and notifies the
// shop administrators. It always logs the notification and forwards it to
// every configured sink. A failing sink fails the whole delivery so the
// outbox retries it; sinks must therefore tolerate duplicates.
type OrderPlacedNotificationHandler struct {
	sinks  []NotificationSink
	logger *zap.Logger
}

// NewOrderPlacedNotificationHandler creates a new handler for order placed events.
func NewOrderPlacedNotificationHandler(logger *zap.Logger, sinks ...NotificationSink) *OrderPlacedNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderPlacedNotificationHandler{
		sinks:  sinks,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedNotificationHandler) EventTypes() []string {
	return []string{ordering.EventTypeOrderPlaced}
}

// Handle delivers the notification for one placed order
func (h *OrderPlacedNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*ordering.OrderPlacedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ordering.EventTypeOrderPlaced),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ordering.EventTypeOrderPlaced, event.EventType())
	}

	n := OrderPlacedNotification{
		EventID:     placed.EventID(),
		OrderID:     placed.OrderID,
		UserID:      placed.UserID,
		TotalAmount: placed.TotalAmount.StringFixed(valueobject.MoneyScale),
		OccurredAt:  placed.OccurredAt(),
	}

	var errs []error
	for _, sink := range h.sinks {
		if err := sink.Send(ctx, n); err != nil {
			h.logger.Warn("notification sink failed",
				zap.String("sink", sink.Name()),
				zap.String("order_id", n.OrderID.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return shared.ErrNotificationDelivery.Wrap(errors.Join(errs...))
	}

	h.logger.Info("Order placed notification sent to admin",
		zap.String("order_id", n.OrderID.String()),
		zap.String("total_amount", n.TotalAmount),
		zap.String("user_id", n.UserID.String()),
	)
	return nil
}

// Ensure OrderPlacedNotificationHandler implements EventHandler
var _ shared.EventHandler = (*OrderPlacedNotificationHandler)(nil)
