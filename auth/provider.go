// Package auth supplies the identity a data context caches for.
package auth

import "sync"

// Provider yields the current identity. resolved is false while the
// session is still being established; callers must not fetch until it
// turns true. A resolved provider with an empty identity means signed out.
type Provider interface {
	Identity() (identity string, resolved bool)
}

// Static is a Provider with a settable identity.
type Static struct {
	mu       sync.RWMutex
	identity string
	resolved bool
}

// NewStatic returns a resolved provider for identity.
func NewStatic(identity string) *Static {
	return &Static{identity: identity, resolved: true}
}

func (s *Static) Identity() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.resolved
}

// Set switches the identity, e.g. on login as another user.
func (s *Static) Set(identity string, resolved bool) {
	s.mu.Lock()
	s.identity, s.resolved = identity, resolved
	s.mu.Unlock()
}
