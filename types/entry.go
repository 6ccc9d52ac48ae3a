package types

// CacheEntry is one identity's cached document.
//
// Timestamp is epoch milliseconds of the remote fetch or the last local
// mutation. Entries are replaced, never mutated, once handed to the tiers.
type CacheEntry struct {
	Data      Document `json:"data"`
	Timestamp int64    `json:"timestamp"`
}

// NewEntry wraps a document with the given timestamp.
func NewEntry(doc Document, timestamp int64) *CacheEntry {
	return &CacheEntry{Data: doc, Timestamp: timestamp}
}
