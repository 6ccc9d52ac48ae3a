package shard

import (
	"sync"

	"github.com/krisalay/faculty-cache/eviction"
)

/*
Shard is one slice of the memory tier. Each shard owns its store, its
eviction bookkeeping and the lock that serializes its writers, so
identities on different shards never contend.
*/
type Shard struct {
	Store    *Store
	Eviction eviction.Policy

	// Mu guards writes to Store and every call into Eviction.
	// Store reads are lock-free.
	Mu sync.Mutex
}

func New(ev eviction.Policy) *Shard {
	return &Shard{
		Store:    NewStore(),
		Eviction: ev,
	}
}
