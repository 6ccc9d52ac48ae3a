// Package kv provides session-scoped string key-value stores backing the
// persistent cache tier.
package kv

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned when the backing storage cannot be used.
var ErrUnavailable = errors.New("session storage unavailable")

// Store is a string key-value store scoped to one session. A missing key
// is reported with ok=false and a nil error.
type Store interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Memory is a map-backed Store. It lives as long as the process, which makes
// it the session store for tests and single-run tools.
type Memory struct {
	mu          sync.RWMutex
	items       map[string]string
	unavailable bool
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// SetUnavailable makes every call fail with ErrUnavailable, like a browser
// with storage disabled.
func (m *Memory) SetUnavailable(v bool) {
	m.mu.Lock()
	m.unavailable = v
	m.mu.Unlock()
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable {
		return "", false, ErrUnavailable
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	delete(m.items, key)
	return nil
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
