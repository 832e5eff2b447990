// Package testutil provides shared test helpers for clipsync.
//
// # Clock
//
// FakeClock is a manually advanced clock satisfying the engine's Clock
// interface, so quiescence-window arithmetic can be tested without sleeping:
//
//	clock := testutil.NewFakeClock(testutil.Epoch)
//	clock.Advance(1500 * time.Millisecond)
//
// # Timeouts
//
//   - ContextWithTestDeadline(t, fallback) - context bounded by the test deadline
//   - ShortOperationContext(t) - 10 second context for HTTP round trips
//   - Eventually(t, timeout, cond) - polls cond until it holds or fails the test
package testutil
