package server

import (
	"context"
	"sync"
)

// ValueStore holds the shared clipboard value.
type ValueStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, text string) error
}

// MemoryStore is a ValueStore that lives for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	text string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text, nil
}

func (m *MemoryStore) Set(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
