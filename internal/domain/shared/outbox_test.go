package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	BaseDomainEvent
}

func newTestEntry(maxRetries int) *OutboxEntry {
	evt := &testEvent{BaseDomainEvent: NewBaseDomainEvent("OrderPlaced", "Order", uuid.New())}
	return NewOutboxEntry(evt, []byte(`{}`), maxRetries)
}

func TestNewOutboxEntry(t *testing.T) {
	evt := &testEvent{BaseDomainEvent: NewBaseDomainEvent("OrderPlaced", "Order", uuid.New())}
	entry := NewOutboxEntry(evt, []byte(`{"order_id":"x"}`), 0)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, evt.EventID(), entry.EventID)
	assert.Equal(t, "OrderPlaced", entry.EventType)
	assert.Equal(t, evt.AggregateID(), entry.AggregateID)
	assert.Equal(t, "Order", entry.AggregateType)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)

	assert.Equal(t, 8, newTestEntry(8).MaxRetries)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{9, 256 * time.Second},
		{10, MaxBackoff},
		{64, MaxBackoff},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestOutboxEntry_MarkFailed(t *testing.T) {
	t.Run("schedules the next attempt", func(t *testing.T) {
		entry := newTestEntry(5)

		entry.MarkFailed("smtp unavailable")
		require.NotNil(t, entry.NextRetryAt)
		assert.Equal(t, OutboxStatusFailed, entry.Status)
		assert.Equal(t, 1, entry.RetryCount)
		assert.Equal(t, "smtp unavailable", entry.LastError)
		assert.WithinDuration(t, time.Now().Add(time.Second), *entry.NextRetryAt, 200*time.Millisecond)

		entry.MarkFailed("smtp unavailable")
		assert.WithinDuration(t, time.Now().Add(2*time.Second), *entry.NextRetryAt, 200*time.Millisecond)
		assert.True(t, entry.CanRetry())
	})

	t.Run("goes dead when the budget is spent", func(t *testing.T) {
		entry := newTestEntry(2)

		entry.MarkFailed("e1")
		entry.MarkFailed("e2")

		assert.True(t, entry.IsDead())
		assert.Nil(t, entry.NextRetryAt)
		assert.False(t, entry.CanRetry())
	})
}

func TestOutboxEntry_Lifecycle(t *testing.T) {
	entry := newTestEntry(3)
	require.NoError(t, entry.MarkProcessing())
	assert.Equal(t, OutboxStatusProcessing, entry.Status)

	entry.MarkFailed("broker down")
	require.NoError(t, entry.MarkProcessing(), "failed entries can be reclaimed")

	entry.MarkSent()
	assert.Equal(t, OutboxStatusSent, entry.Status)
	assert.Nil(t, entry.NextRetryAt)
	assert.NotNil(t, entry.ProcessedAt)
	assert.ErrorIs(t, entry.MarkProcessing(), ErrOutboxNotClaimable)
}
