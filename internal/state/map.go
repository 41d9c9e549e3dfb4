// Package state provides the host-owned key-value storage that modules
// read and write during a call.
//
// Each module gets its own Map namespace. Two backends exist: an in-memory
// map for tests and short-lived nodes, and a SQLite-backed map for
// persistence across restarts.
package state

import (
	"context"
	"sync"
)

// Map defines the storage operations a module may perform on its namespace.
// The host serializes calls, so implementations only need to be safe for
// concurrent readers (queries run outside of dispatch).
type Map[K comparable, V any] interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key K) (V, bool, error)

	// Insert stores value under key, replacing any previous value.
	Insert(ctx context.Context, key K, value V) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key K) error

	// Contains reports whether key is present.
	Contains(ctx context.Context, key K) (bool, error)

	// Len returns the number of entries in the namespace.
	Len(ctx context.Context) (int, error)
}

// MemoryMap is an in-memory implementation of Map.
type MemoryMap[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewMemoryMap creates an empty in-memory map.
func NewMemoryMap[K comparable, V any]() *MemoryMap[K, V] {
	return &MemoryMap[K, V]{
		entries: make(map[K]V),
	}
}

func (m *MemoryMap[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryMap[K, V]) Insert(ctx context.Context, key K, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

func (m *MemoryMap[K, V]) Remove(ctx context.Context, key K) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *MemoryMap[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[key]
	return ok, nil
}

func (m *MemoryMap[K, V]) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries), nil
}

var _ Map[string, int] = (*MemoryMap[string, int])(nil)
