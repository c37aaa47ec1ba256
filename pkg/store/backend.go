package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Keys under which the store keeps its values.
const (
	KeySettings  = "settings"
	KeyGoals     = "goals"
	KeyAnalytics = "analytics"
)

// Backend is a key/value persistence layer.
type Backend interface {
	// Load decodes the value stored under key into dst.
	// found is false (with a nil error) when the key has never been written.
	Load(ctx context.Context, key string, dst any) (found bool, err error)

	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, value any) error

	// Close releases any resources (file handles, database connections).
	Close() error

	// Name returns the backend type for logging.
	Name() string
}

// MemoryBackend keeps JSON-encoded values in a map.
// Values are copied on every Load/Save so callers never share state.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	data, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

// Name implements Backend.
func (m *MemoryBackend) Name() string { return "memory" }

var _ Backend = (*MemoryBackend)(nil)
