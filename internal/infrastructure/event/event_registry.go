package event

import (
	"github.com/storefront/backend/internal/domain/ordering"
)

// RegisterAllEvents registers all domain event types with the serializer.
// The OutboxProcessor can only deliver events registered here.
func RegisterAllEvents(serializer *EventSerializer) {
	// Ordering
	serializer.Register(ordering.EventTypeOrderPlaced, &ordering.OrderPlacedEvent{})
}
