package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextWithTestDeadline(t *testing.T) {
	fallback := 100 * time.Millisecond
	ctx, cancel := ContextWithTestDeadline(t, fallback)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok, "context should have deadline")
	assert.LessOrEqual(t, time.Until(deadline), fallback)
	assert.Greater(t, time.Until(deadline), time.Duration(0))
}

func TestShortOperationContext(t *testing.T) {
	ctx, cancel := ShortOperationContext(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.LessOrEqual(t, time.Until(deadline), DefaultShortTimeout)
}

func TestEventually(t *testing.T) {
	var calls atomic.Int32
	Eventually(t, time.Second, func() bool {
		return calls.Add(1) >= 3
	})
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
