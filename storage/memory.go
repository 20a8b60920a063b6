package storage

import (
	"context"
	"sync"
)

var _ Storage = &Memory{}

// Memory keeps snapshots in process memory. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (m *Memory) Write(_ context.Context, key string, data []byte) error {
	b := make([]byte, len(data))
	copy(b, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = b
	return nil
}
