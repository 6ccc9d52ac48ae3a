package tier

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/kv"
	"github.com/krisalay/faculty-cache/types"
)

// DefaultKeyPrefix prefixes every persisted identity key.
const DefaultKeyPrefix = "facultyData_"

/*
Persistent adapts a session kv.Store to cache entries.

Nothing here returns an error. A store that is missing, full or holding
garbage degrades to "no cache": the failure is logged, counted, and the
caller sees a miss. The memory tier keeps working either way.
*/
type Persistent struct {
	store   kv.Store
	prefix  string
	metrics types.Metrics
	logger  *zap.Logger
}

// NewPersistent wraps store. A nil store behaves as permanently unavailable.
func NewPersistent(store kv.Store, prefix string, metrics types.Metrics, logger *zap.Logger) *Persistent {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persistent{store: store, prefix: prefix, metrics: metrics, logger: logger}
}

// Key returns the storage key for identity.
func (p *Persistent) Key(identity string) string {
	return p.prefix + identity
}

// Read returns the stored entry or nil.
func (p *Persistent) Read(identity string) *types.CacheEntry {
	if p.store == nil {
		return nil
	}
	key := p.Key(identity)
	raw, ok, err := p.store.GetItem(key)
	if err != nil {
		p.fail("read", key, err)
		return nil
	}
	if !ok {
		return nil
	}
	var ent types.CacheEntry
	if err := json.Unmarshal([]byte(raw), &ent); err != nil {
		p.fail("decode", key, err)
		return nil
	}
	if ent.Data == nil {
		ent.Data = types.Document{}
	}
	return &ent
}

// Write stores ent under identity's key.
func (p *Persistent) Write(identity string, ent *types.CacheEntry) {
	if p.store == nil || ent == nil {
		return
	}
	key := p.Key(identity)
	b, err := json.Marshal(ent)
	if err != nil {
		p.fail("encode", key, err)
		return
	}
	if err := p.store.SetItem(key, string(b)); err != nil {
		p.fail("write", key, err)
	}
}

// Remove deletes identity's entry.
func (p *Persistent) Remove(identity string) {
	if p.store == nil {
		return
	}
	key := p.Key(identity)
	if err := p.store.RemoveItem(key); err != nil {
		p.fail("remove", key, err)
	}
}

func (p *Persistent) fail(op, key string, err error) {
	p.metrics.StoreError()
	p.logger.Warn("persistent cache tier failure, treating as miss",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}
