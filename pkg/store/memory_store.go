package store

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryStore is a process-local Store backed by a concurrent map. It is used
// as the fast cache tier and in tests.
type MemoryStore struct {
	values cmap.ConcurrentMap[string, string]
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: cmap.New[string]()}
}

// Get returns the value for key and whether it was present.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	v, ok := m.values.Get(key)
	return v, ok, nil
}

// Set writes the value for key.
func (m *MemoryStore) Set(key, value string) error {
	m.values.Set(key, value)
	return nil
}

// Delete removes the key.
func (m *MemoryStore) Delete(key string) error {
	m.values.Remove(key)
	return nil
}
