package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	appordering "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	deadline bool
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func notification() appordering.OrderPlacedNotification {
	return appordering.OrderPlacedNotification{
		EventID:     uuid.New(),
		OrderID:     uuid.New(),
		UserID:      uuid.New(),
		TotalAmount: "25.50",
		OccurredAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSink_Send(t *testing.T) {
	t.Run("keys the message by order id", func(t *testing.T) {
		w := &recordingWriter{}
		sink := newSink(w, time.Second)
		n := notification()

		require.NoError(t, sink.Send(context.Background(), n))

		require.Len(t, w.messages, 1)
		msg := w.messages[0]
		assert.Equal(t, n.OrderID.String(), string(msg.Key))
		assert.True(t, w.deadline)

		var body appordering.OrderPlacedNotification
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, n.OrderID, body.OrderID)
		assert.Equal(t, "25.50", body.TotalAmount)

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "OrderPlaced", headers["event_type"])
		assert.Equal(t, n.EventID.String(), headers["event_id"])
	})

	t.Run("wraps writer errors", func(t *testing.T) {
		w := &recordingWriter{err: errors.New("leader not available")}
		sink := newSink(w, 0)

		err := sink.Send(context.Background(), notification())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "leader not available")
		assert.False(t, w.deadline)
	})

	t.Run("close releases the writer", func(t *testing.T) {
		w := &recordingWriter{}
		require.NoError(t, newSink(w, 0).Close())
		assert.True(t, w.closed)
	})
}

func TestNewSink(t *testing.T) {
	_, err := NewSink(config.KafkaConfig{Topic: "orders.placed"})
	assert.Error(t, err)

	_, err = NewSink(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	sink, err := NewSink(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "orders.placed"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", sink.Name())
	require.NoError(t, sink.Close())
}
