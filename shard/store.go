package shard

import (
	"sync/atomic"

	"github.com/krisalay/faculty-cache/types"
)

/*
Store holds identity → entry for one shard.

Reads vastly outnumber writes (every section accessor reads, only fetches
and section updates write), so the map is copy-on-write: readers load an
immutable snapshot without locking, writers build a new map and swap it in.
Writers must be serialized by the owning shard's lock.
*/
type Store struct {
	data atomic.Pointer[map[string]*types.CacheEntry]
}

func NewStore() *Store {
	s := &Store{}
	m := make(map[string]*types.CacheEntry)
	s.data.Store(&m)
	return s
}

func (s *Store) snapshot() map[string]*types.CacheEntry {
	return *s.data.Load()
}

// Get returns the entry for identity.
func (s *Store) Get(identity string) (*types.CacheEntry, bool) {
	ent, ok := s.snapshot()[identity]
	return ent, ok
}

// Put replaces the entry for identity.
func (s *Store) Put(identity string, ent *types.CacheEntry) {
	old := s.snapshot()
	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[identity] = ent
	s.data.Store(&n)
}

// Delete removes identity and reports whether it was present.
func (s *Store) Delete(identity string) bool {
	old := s.snapshot()
	if _, ok := old[identity]; !ok {
		return false
	}
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != identity {
			n[k] = v
		}
	}
	s.data.Store(&n)
	return true
}

// Len returns how many identities the shard holds.
func (s *Store) Len() int {
	return len(s.snapshot())
}
