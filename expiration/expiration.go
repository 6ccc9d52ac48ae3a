// This file defines when a cached faculty document stops being fresh.

package expiration

import "time"

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 10 * time.Minute

/*
Strategy decides whether an entry written at a given time is still usable.
Timestamps are epoch milliseconds, the same unit the persisted entries use,
so an entry read back from the session store needs no conversion.
*/
type Strategy interface {

	// IsFresh reports whether an entry stamped at ts may be served at now.
	IsFresh(ts, now int64) bool

	// Remaining is how many milliseconds of freshness are left, never
	// negative. The refresh scheduler arms its timer with it, so a reload
	// half way through the window does not restart the full TTL.
	Remaining(ts, now int64) int64

	// TTL is the full window, used to re-arm after every load.
	TTL() time.Duration
}
