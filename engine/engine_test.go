package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/faculty-cache/engine"
	"github.com/krisalay/faculty-cache/expiration"
	"github.com/krisalay/faculty-cache/internal/fakeclock"
	"github.com/krisalay/faculty-cache/types"
	"github.com/krisalay/faculty-cache/writepolicy"
)

type fetchMetrics struct {
	types.NoopMetrics
	refreshes, errors int
}

func (m *fetchMetrics) Refresh()    { m.refreshes++ }
func (m *fetchMetrics) FetchError() { m.errors++ }

func TestDefaults(t *testing.T) {
	e := engine.NewCacheEngine(nil, nil, nil, nil, nil, nil)
	assert.Equal(t, expiration.DefaultTTL, e.TTL())
	assert.NotNil(t, e.Logger)

	_, err := e.Load(context.Background(), "a@x")
	assert.Error(t, err)
	assert.ErrorIs(t, e.Persist(context.Background(), "a@x", "x", types.List()), writepolicy.ErrNoPersister)
}

func TestFreshnessUsesClock(t *testing.T) {
	clock := fakeclock.AtMillis(1_000_000)
	e := engine.NewCacheEngine(nil, nil, nil, nil, clock, nil)
	ent := types.NewEntry(types.Document{}, 1_000_000)

	assert.True(t, e.IsFresh(ent))
	assert.Equal(t, 10*time.Minute, e.Remaining(ent))

	clock.Advance(9 * time.Minute)
	assert.Equal(t, time.Minute, e.Remaining(ent))

	clock.Advance(time.Minute)
	assert.False(t, e.IsFresh(ent))
	assert.Equal(t, time.Duration(0), e.Remaining(ent))
	assert.False(t, e.IsFresh(nil))
}

func TestLoadCountsAndWraps(t *testing.T) {
	metrics := &fetchMetrics{}
	calls := 0
	fetcher := types.FetcherFunc(func(_ context.Context, identity string) (types.Document, error) {
		calls++
		if identity == "missing@x" {
			return nil, types.ErrNotFound
		}
		return nil, nil
	})
	e := engine.NewCacheEngine(nil, fetcher, nil, metrics, nil, nil)

	doc, err := e.Load(context.Background(), "a@x")
	require.NoError(t, err)
	assert.NotNil(t, doc, "nil documents are normalised to empty")

	_, err = e.Load(context.Background(), "missing@x")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, metrics.refreshes)
	assert.Equal(t, 1, metrics.errors)
}
