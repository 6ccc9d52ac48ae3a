package expiration

import "time"

/*
FixedTTL expires an entry a fixed time after it was written. Reads do not
extend it; only a new fetch or a local update restamps the entry.
*/
type FixedTTL struct {
	Window time.Duration
}

// NewFixedTTL returns a FixedTTL, falling back to DefaultTTL for ttl <= 0.
func NewFixedTTL(ttl time.Duration) *FixedTTL {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FixedTTL{Window: ttl}
}

func (f *FixedTTL) TTL() time.Duration {
	if f.Window <= 0 {
		return DefaultTTL
	}
	return f.Window
}

func (f *FixedTTL) ttlMillis() int64 {
	return f.TTL().Milliseconds()
}

// IsFresh is now - ts < TTL. An entry exactly TTL old is stale.
func (f *FixedTTL) IsFresh(ts, now int64) bool {
	return now-ts < f.ttlMillis()
}

// Remaining is max(0, TTL - (now - ts)).
func (f *FixedTTL) Remaining(ts, now int64) int64 {
	left := f.ttlMillis() - (now - ts)
	if left < 0 {
		return 0
	}
	return left
}
