package clipboard

import (
	"context"
	"sync"
)

// Memory is an in-process Clipboard. Failures can be injected to exercise
// the error paths of callers.
type Memory struct {
	mu       sync.Mutex
	text     string
	readErr  error
	writeErr error
	reads    int
	writes   []string
}

// NewMemory returns a Memory clipboard holding text.
func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

// Read returns the held text, or the injected read error.
func (m *Memory) Read(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return "", m.readErr
	}
	return m.text, nil
}

// Write records text and replaces the held text, unless a write error is
// injected.
func (m *Memory) Write(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, text)
	if m.writeErr != nil {
		return m.writeErr
	}
	m.text = text
	return nil
}

// Copy changes the text the way a user copying something would. It is not
// recorded as a Write.
func (m *Memory) Copy(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
}

// Text returns the held text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// SetReadError makes Read fail with err until cleared with nil.
func (m *Memory) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes Write fail with err until cleared with nil.
func (m *Memory) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns every value passed to Write, including failed ones.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

// Reads returns the number of Read calls.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
