// Package testutil provides helpers shared by the storefront integration tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	appordering "github.com/storefront/backend/internal/application/ordering"
)

// RecordingSink is a notification sink that keeps every delivered notification.
type RecordingSink struct {
	mu   sync.Mutex
	sent []appordering.OrderPlacedNotification
	err  error
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Name() string { return "recording" }

// Send records n, or fails with the error set through SetError.
func (s *RecordingSink) Send(_ context.Context, n appordering.OrderPlacedNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

// SetError makes subsequent sends fail with err; nil restores delivery.
func (s *RecordingSink) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Sent returns a copy of the delivered notifications.
func (s *RecordingSink) Sent() []appordering.OrderPlacedNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]appordering.OrderPlacedNotification, len(s.sent))
	copy(out, s.sent)
	return out
}

// WaitForCondition polls condition until it holds or timeout elapses.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}
