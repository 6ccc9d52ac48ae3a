package types

// This file defines how the cache reports what it is doing.

/*
Metrics is the set of events the cache emits. Each method is one event in
the cache lifecycle; the cache calls them as things happen.
*/
type Metrics interface {

	// Hit is called when a tier returns an entry.
	// tier is "memory" or "persistent".
	Hit(tier string)

	// Miss is called when neither tier holds the identity.
	Miss()

	// Promote is called when a persistent hit is copied into memory.
	Promote()

	// Eviction is called when the memory tier drops an identity to stay
	// under capacity. The persistent copy survives.
	Eviction()

	// Expire is called when a cached entry was found but is stale.
	Expire()

	// Refresh is called for every remote fetch the cache issues.
	Refresh()

	// FetchError is called when a remote fetch fails.
	FetchError()

	// StoreError is called when the persistent store fails to read,
	// write, decode or delete. These never reach the consumer.
	StoreError()
}

// NoopMetrics ignores every event. It is the default so callers never
// need nil checks.
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)  {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Promote()    {}
func (NoopMetrics) Eviction()   {}
func (NoopMetrics) Expire()     {}
func (NoopMetrics) Refresh()    {}
func (NoopMetrics) FetchError() {}
func (NoopMetrics) StoreError() {}
