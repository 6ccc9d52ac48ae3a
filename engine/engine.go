package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/expiration"
	"github.com/krisalay/faculty-cache/types"
	"github.com/krisalay/faculty-cache/writepolicy"
)

/*
CacheEngine is the policy layer behind a data context.

It decides:
- whether an entry is fresh and how long it stays fresh
- how a document is fetched when the tiers cannot serve it
- how a section save reaches the remote API
- what gets counted and logged

It does NOT store entries, track identities or own timers.
*/
type CacheEngine struct {

	// Freshness decides when an entry is too old to serve.
	Freshness expiration.Strategy

	// Fetcher loads a whole document from the faculty API.
	Fetcher types.Fetcher

	// WritePolicy pushes a section to the faculty API before the cache
	// applies it. Nil means saves are rejected.
	WritePolicy writepolicy.WritePolicy

	Metrics types.Metrics

	Clock types.Clock

	Logger *zap.Logger
}

// NewCacheEngine fills nil collaborators with defaults: a 10 minute fixed
// TTL, no-op metrics, the system clock and a no-op logger.
func NewCacheEngine(
	exp expiration.Strategy,
	fetcher types.Fetcher,
	writePolicy writepolicy.WritePolicy,
	metrics types.Metrics,
	clock types.Clock,
	logger *zap.Logger,
) *CacheEngine {
	if exp == nil {
		exp = expiration.NewFixedTTL(expiration.DefaultTTL)
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if clock == nil {
		clock = types.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheEngine{
		Freshness:   exp,
		Fetcher:     fetcher,
		WritePolicy: writePolicy,
		Metrics:     metrics,
		Clock:       clock,
		Logger:      logger,
	}
}

// NowMillis is the current time in epoch milliseconds.
func (e *CacheEngine) NowMillis() int64 {
	return e.Clock.Now().UnixMilli()
}

// IsFresh checks ent against the freshness strategy at the current time.
func (e *CacheEngine) IsFresh(ent *types.CacheEntry) bool {
	if ent == nil {
		return false
	}
	return e.Freshness.IsFresh(ent.Timestamp, e.NowMillis())
}

// Remaining is how long ent stays fresh.
func (e *CacheEngine) Remaining(ent *types.CacheEntry) time.Duration {
	return time.Duration(e.Freshness.Remaining(ent.Timestamp, e.NowMillis())) * time.Millisecond
}

// TTL is the full freshness window.
func (e *CacheEngine) TTL() time.Duration {
	return e.Freshness.TTL()
}

// Load fetches identity's document from the remote API.
func (e *CacheEngine) Load(ctx context.Context, identity string) (types.Document, error) {
	if e.Fetcher == nil {
		return nil, errors.New("no remote fetcher configured")
	}
	e.Metrics.Refresh()
	start := e.Clock.Now()

	doc, err := e.Fetcher.Fetch(ctx, identity)
	if err != nil {
		e.Metrics.FetchError()
		e.Logger.Warn("faculty data fetch failed",
			zap.String("identity", identity),
			zap.Bool("not_found", errors.Is(err, types.ErrNotFound)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch faculty data for %s: %w", identity, err)
	}
	if doc == nil {
		doc = types.Document{}
	}
	e.Logger.Debug("faculty data fetched",
		zap.String("identity", identity),
		zap.Int("sections", len(doc)),
		zap.Duration("took", e.Clock.Now().Sub(start)),
	)
	return doc, nil
}

// Persist runs the write policy for one section save.
func (e *CacheEngine) Persist(ctx context.Context, identity, name string, sec types.Section) error {
	if e.WritePolicy == nil {
		return writepolicy.ErrNoPersister
	}
	return e.WritePolicy.Write(ctx, identity, name, sec)
}
