package expiration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/faculty-cache/expiration"
)

func TestFreshnessBoundary(t *testing.T) {
	p := expiration.NewFixedTTL(0)
	ttl := expiration.DefaultTTL.Milliseconds()
	const ts = int64(1_700_000_000_000)

	assert.Equal(t, int64(600_000), ttl)
	assert.True(t, p.IsFresh(ts, ts))
	assert.True(t, p.IsFresh(ts, ts+ttl-1))
	assert.False(t, p.IsFresh(ts, ts+ttl))
	assert.False(t, p.IsFresh(ts, ts+ttl+1))
}

func TestRemaining(t *testing.T) {
	p := expiration.NewFixedTTL(10 * time.Minute)

	assert.Equal(t, int64(600_000), p.Remaining(0, 0))
	assert.Equal(t, int64(100_000), p.Remaining(0, 500_000))
	assert.Equal(t, int64(0), p.Remaining(0, 600_000))
	assert.Equal(t, int64(0), p.Remaining(0, 9_000_000))
}

func TestCustomWindow(t *testing.T) {
	p := &expiration.FixedTTL{Window: time.Second}
	assert.Equal(t, time.Second, p.TTL())
	assert.True(t, p.IsFresh(0, 999))
	assert.False(t, p.IsFresh(0, 1000))

	var zero expiration.FixedTTL
	assert.Equal(t, expiration.DefaultTTL, zero.TTL())
}
