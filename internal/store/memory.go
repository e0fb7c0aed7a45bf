package store

import (
	"sync"

	"github.com/gameticharles/symexpr"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*symexpr.Expr
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*symexpr.Expr)}
}

// Get retrieves an expression by name.
func (m *Memory) Get(name string) (*symexpr.Expr, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[name], nil
}

// Put stores an expression by name.
func (m *Memory) Put(name string, e *symexpr.Expr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = e
	return nil
}

// Delete removes an expression by name.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// List returns all stored expressions.
func (m *Memory) List() (map[string]*symexpr.Expr, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*symexpr.Expr, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error { return nil }
