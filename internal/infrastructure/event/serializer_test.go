package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegisteredSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterAllEvents(s)
	return s
}

func placedEvent(t *testing.T) *ordering.OrderPlacedEvent {
	t.Helper()

	order, err := ordering.NewOrder(uuid.New())
	require.NoError(t, err)
	_, err = order.AddLine(uuid.New(), "Mug", 2, moneyOf("10.00"))
	require.NoError(t, err)
	_, err = order.AddLine(uuid.New(), "Tea", 1, moneyOf("5.50"))
	require.NoError(t, err)
	require.NoError(t, order.Finalize())

	evt, ok := order.GetDomainEvents()[0].(*ordering.OrderPlacedEvent)
	require.True(t, ok)
	return evt
}

func TestRegisterAllEvents(t *testing.T) {
	s := newRegisteredSerializer()

	assert.Equal(t, []string{ordering.EventTypeOrderPlaced}, s.RegisteredTypes())
}

func TestEventSerializer_RoundTripOrderPlaced(t *testing.T) {
	s := newRegisteredSerializer()
	evt := placedEvent(t)

	data, err := s.Serialize(evt)
	require.NoError(t, err)

	decoded, err := s.Deserialize(ordering.EventTypeOrderPlaced, data)
	require.NoError(t, err)

	got, ok := decoded.(*ordering.OrderPlacedEvent)
	require.True(t, ok)
	assert.Equal(t, evt.EventID(), got.EventID())
	assert.Equal(t, evt.OrderID, got.OrderID)
	assert.Equal(t, evt.UserID, got.UserID)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25.50")))
	assert.Equal(t, ordering.AggregateTypeOrder, got.AggregateType())
	assert.True(t, evt.OccurredAt().Equal(got.OccurredAt()))
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	s := newRegisteredSerializer()

	t.Run("unknown type", func(t *testing.T) {
		_, err := s.Deserialize("Nope", []byte(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown event type")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := s.Deserialize(ordering.EventTypeOrderPlaced, []byte(`{not json`))
		require.Error(t, err)
	})
}

func TestEventSerializer_IsRegistered(t *testing.T) {
	s := NewEventSerializer()
	assert.False(t, s.IsRegistered(ordering.EventTypeOrderPlaced))

	s.Register(ordering.EventTypeOrderPlaced, &ordering.OrderPlacedEvent{})
	assert.True(t, s.IsRegistered(ordering.EventTypeOrderPlaced))
}
