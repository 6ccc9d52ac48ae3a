package tier

import (
	"github.com/krisalay/faculty-cache/eviction"
	"github.com/krisalay/faculty-cache/shard"
	"github.com/krisalay/faculty-cache/types"
)

/*
Memory is the process-lifetime tier: identity → entry, split across shards.

Capacity bounds the number of identities held in memory (divided evenly
across shards, 0 means unbounded). Going over it evicts an identity from
memory only; its persistent copy is untouched and will be promoted back on
its next read.
*/
type Memory struct {
	shards   []*shard.Shard
	selector shard.Selector
	perShard int
	metrics  types.Metrics
}

// NewMemory builds a memory tier. shards < 1 is treated as 1.
func NewMemory(shards, capacity int, policy eviction.PolicyType, metrics types.Metrics) *Memory {
	if shards < 1 {
		shards = 1
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.New(eviction.New(policy))
	}
	perShard := 0
	if capacity > 0 {
		perShard = capacity / shards
		if perShard < 1 {
			perShard = 1
		}
	}
	return &Memory{
		shards:   s,
		selector: shard.HashSelector{},
		perShard: perShard,
		metrics:  metrics,
	}
}

func (m *Memory) Get(identity string) (*types.CacheEntry, bool) {
	sh := m.selector.Select(identity, m.shards)
	ent, ok := sh.Store.Get(identity)
	if ok {
		sh.Mu.Lock()
		sh.Eviction.Touched(identity)
		sh.Mu.Unlock()
	}
	return ent, ok
}

func (m *Memory) Put(identity string, ent *types.CacheEntry) {
	sh := m.selector.Select(identity, m.shards)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	if _, exists := sh.Store.Get(identity); !exists && m.perShard > 0 {
		for sh.Store.Len() >= m.perShard {
			victim := sh.Eviction.Victim()
			if victim == "" {
				break
			}
			sh.Store.Delete(victim)
			m.metrics.Eviction()
		}
	}
	sh.Store.Put(identity, ent)
	sh.Eviction.Added(identity)
}

// Forget drops identity from memory only.
func (m *Memory) Forget(identity string) {
	sh := m.selector.Select(identity, m.shards)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	sh.Store.Delete(identity)
	sh.Eviction.Forget(identity)
}

// Len returns the number of identities held across all shards.
func (m *Memory) Len() int {
	n := 0
	for _, sh := range m.shards {
		n += sh.Store.Len()
	}
	return n
}
