package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultShortTimeout bounds single HTTP round trips in tests.
	DefaultShortTimeout = 10 * time.Second

	// DefaultTestBuffer is subtracted from the test deadline to leave time
	// for cleanup before the test times out.
	DefaultTestBuffer = 2 * time.Second

	// pollInterval is how often Eventually re-checks its condition.
	pollInterval = 5 * time.Millisecond
)

// ContextWithTestDeadline creates a context that respects the test's
// deadline minus DefaultTestBuffer. If the test has no deadline, or the
// adjusted deadline has already passed, fallback is used.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-DefaultTestBuffer)
		if time.Until(adjusted) > 0 && time.Until(adjusted) < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// ShortOperationContext returns a context suitable for a single request.
func ShortOperationContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultShortTimeout)
}

// Eventually polls cond until it returns true, failing the test if timeout
// elapses first.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(pollInterval)
	}
}
