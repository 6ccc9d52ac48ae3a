// Package tier composes the two cache levels: a shared in-memory map and a
// session-scoped persistent store that survives reloads.
package tier

import (
	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/types"
)

/*
Tiers is the two-level cache. Construct one per application and hand it to
every data context that should share it; there is no package-level cache.

All writes go through Set and Clear so both levels stay in step.
*/
type Tiers struct {
	memory     *Memory
	persistent *Persistent
	metrics    types.Metrics
	logger     *zap.Logger
}

func New(memory *Memory, persistent *Persistent, metrics types.Metrics, logger *zap.Logger) *Tiers {
	if memory == nil {
		memory = NewMemory(1, 0, "", metrics)
	}
	if persistent == nil {
		persistent = NewPersistent(nil, "", metrics, logger)
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiers{memory: memory, persistent: persistent, metrics: metrics, logger: logger}
}

// Get checks memory, then the persistent store. A persistent hit is
// promoted into memory before it is returned.
func (t *Tiers) Get(identity string) (*types.CacheEntry, bool) {
	if ent, ok := t.memory.Get(identity); ok {
		t.metrics.Hit("memory")
		return ent, true
	}
	ent := t.persistent.Read(identity)
	if ent == nil {
		t.metrics.Miss()
		return nil, false
	}
	t.metrics.Hit("persistent")
	t.memory.Put(identity, ent)
	t.metrics.Promote()
	t.logger.Debug("promoted persisted entry into memory",
		zap.String("identity", identity),
		zap.Int64("timestamp", ent.Timestamp),
	)
	return ent, true
}

// Set writes ent to both tiers.
func (t *Tiers) Set(identity string, ent *types.CacheEntry) {
	t.memory.Put(identity, ent)
	t.persistent.Write(identity, ent)
}

// Clear removes identity from both tiers.
func (t *Tiers) Clear(identity string) {
	t.memory.Forget(identity)
	t.persistent.Remove(identity)
}

// DropMemory forgets identity in memory only, as a page reload would.
func (t *Tiers) DropMemory(identity string) {
	t.memory.Forget(identity)
}

// InMemory reports whether identity is currently held in memory, without
// touching eviction order or metrics.
func (t *Tiers) InMemory(identity string) bool {
	for _, sh := range t.memory.shards {
		if _, ok := sh.Store.Get(identity); ok {
			return true
		}
	}
	return false
}

// Persistent exposes the persistent adapter, mostly for diagnostics.
func (t *Tiers) Persistent() *Persistent {
	return t.persistent
}
