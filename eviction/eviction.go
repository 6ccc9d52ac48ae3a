package eviction

import "fmt"

/*
This file decides which identity the memory tier forgets when a shard is
full. Forgetting is cheap here: the persistent tier still holds the entry,
so the next read promotes it back.
*/

// Policy tracks identities held by one shard and picks a victim on demand.
type Policy interface {

	// Touched is called when an identity's entry is read from memory.
	Touched(identity string)

	// Added is called when an identity's entry is written to memory.
	Added(identity string)

	// Forget drops bookkeeping for an identity removed on purpose.
	Forget(identity string)

	// Victim removes and returns the identity to evict, or "" if empty.
	Victim() string
}

// PolicyType names a supported eviction strategy.
type PolicyType string

const (
	// LRU evicts the identity whose data was read or written least recently.
	LRU PolicyType = "LRU"

	// FIFO evicts the identity that entered the shard first.
	FIFO PolicyType = "FIFO"
)

// ParsePolicyType validates a configured policy name.
func ParsePolicyType(s string) (PolicyType, error) {
	switch PolicyType(s) {
	case LRU, FIFO:
		return PolicyType(s), nil
	case "":
		return LRU, nil
	default:
		return "", fmt.Errorf("unknown eviction policy %q", s)
	}
}

// New returns a fresh policy instance of the given type. Unknown types fall
// back to LRU; ParsePolicyType is where configuration gets rejected.
func New(t PolicyType) Policy {
	if t == FIFO {
		return newFIFO()
	}
	return newLRU()
}
