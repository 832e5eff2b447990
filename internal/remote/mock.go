package remote

import (
	"context"
	"sync"
)

// Mock is an in-process stand-in for Client.
// It is exported for use by tests in other packages.
type Mock struct {
	mu sync.Mutex

	value     string
	connected bool

	// Errors returned by the next calls. A queued error is consumed once;
	// the sticky error is returned until cleared.
	fetchErrs []error
	fetchErr  error
	pushErr   error
	probeErr  error

	// pushGate, when set, blocks Push until it is closed.
	pushGate chan struct{}

	pushes     []string
	fetchCalls int
	probeCalls int
}

// NewMock returns a connected Mock holding value.
func NewMock(value string) *Mock {
	return &Mock{value: value, connected: true}
}

// Probe reports the mock's connection state.
func (m *Mock) Probe(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeCalls++
	if m.probeErr != nil {
		m.connected = false
		return false, m.probeErr
	}
	return m.connected, nil
}

// Fetch returns the stored value or the configured error.
func (m *Mock) Fetch(_ context.Context) (string, error) {
	m.mu.Lock()
	m.fetchCalls++
	if len(m.fetchErrs) > 0 {
		err := m.fetchErrs[0]
		m.fetchErrs = m.fetchErrs[1:]
		m.mu.Unlock()
		return "", err
	}
	if m.fetchErr != nil {
		err := m.fetchErr
		m.mu.Unlock()
		return "", err
	}
	value := m.value
	m.mu.Unlock()
	return value, nil
}

// Push records text and stores it unless an error is configured.
func (m *Mock) Push(ctx context.Context, text string) error {
	m.mu.Lock()
	gate := m.pushGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, text)
	if m.pushErr != nil {
		return m.pushErr
	}
	m.value = text
	return nil
}

// Connected reports the mock's connection state.
func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SetConnected sets the connection state.
func (m *Mock) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// SetValue changes the remote value, as another instance would.
func (m *Mock) SetValue(value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
}

// Value returns the stored value.
func (m *Mock) Value() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// QueueFetchErrors makes the next len(errs) Fetch calls fail in order.
func (m *Mock) QueueFetchErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErrs = append(m.fetchErrs, errs...)
}

// SetFetchError makes every Fetch fail with err until cleared with nil.
func (m *Mock) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// SetPushError makes every Push fail with err until cleared with nil.
func (m *Mock) SetPushError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushErr = err
}

// SetProbeError makes every Probe fail with err until cleared with nil.
func (m *Mock) SetProbeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeErr = err
}

// HoldPushes blocks Push calls until the returned release func is called.
func (m *Mock) HoldPushes() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.pushGate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.pushGate = nil
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Pushes returns a copy of every value passed to Push.
func (m *Mock) Pushes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.pushes))
	copy(out, m.pushes)
	return out
}

// FetchCalls returns the number of Fetch calls.
func (m *Mock) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// ProbeCalls returns the number of Probe calls.
func (m *Mock) ProbeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeCalls
}
