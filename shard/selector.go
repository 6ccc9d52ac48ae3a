package shard

import "hash/fnv"

// Selector maps an identity to the shard that owns it.
type Selector interface {
	Select(identity string, shards []*Shard) *Shard
}

// HashSelector spreads identities with FNV-1a. The mapping is stable for a
// fixed shard count, which is all the memory tier needs.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(identity string, shards []*Shard) *Shard {
	return shards[hash(identity)%uint32(len(shards))]
}
