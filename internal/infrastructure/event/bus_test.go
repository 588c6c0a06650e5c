package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	placed := newTestHandler("OrderPlaced")
	other := newTestHandler("OrderCancelled")
	bus.Subscribe(placed)
	bus.Subscribe(other)

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced"), newTestEvent("OrderPlaced"))
	require.NoError(t, err)

	assert.Equal(t, 2, placed.count())
	assert.Equal(t, 0, other.count())
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	all := newTestHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("OrderPlaced"),
		newTestEvent("OrderCancelled"),
	))
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_Publish_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler("OrderPlaced")
	bus.Subscribe(h, "OrderCancelled")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderCancelled")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_Publish_HandlerErrorsAreReturned(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("OrderPlaced")
	failing.err = errors.New("smtp down")
	healthy := newTestHandler("OrderPlaced")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced"))
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, healthy.count(), "later handlers still run")
}

func TestInMemoryEventBus_Publish_RecoversPanics(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("OrderPlaced")
	h.panicWith = "boom"
	bus.Subscribe(h)

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler("OrderPlaced")
	wildcard := newTestHandler()
	bus.Subscribe(h)
	bus.Subscribe(wildcard)

	bus.Unsubscribe(h)
	bus.Unsubscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Equal(t, 0, h.count())
	assert.Equal(t, 0, wildcard.count())
	assert.Equal(t, 0, bus.registry.Len())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.IsRunning())
}

func TestHandlerRegistry_GetHandlers_TypedBeforeWildcard(t *testing.T) {
	r := NewHandlerRegistry()
	typed := newTestHandler("OrderPlaced")
	wildcard := newTestHandler()
	r.Register(wildcard)
	r.Register(typed, "OrderPlaced")

	handlers := r.GetHandlers("OrderPlaced")
	require.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	assert.Len(t, r.GetHandlers("Unknown"), 1)
}
