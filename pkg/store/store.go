// Package store persists the user-entered credentials between sessions.
package store

import "sync"

// Keys under which the credentials are persisted
const (
	KeyEndpoint = "endpoint"
	KeyAPIKey   = "api_key"
)

// Store is a small synchronous key/value store
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Memory is an in-process Store; its contents die with the process
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
