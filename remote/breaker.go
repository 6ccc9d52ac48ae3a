package remote

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/types"
)

// BreakerConfig tunes the circuit around the faculty API.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Trip after this many consecutive failures.
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

/*
Breaker stops calling the faculty API after repeated failures.

While open, Fetch fails fast with gobreaker.ErrOpenState and the data
context keeps serving whatever it already has. A missing record is an
answer, not a failure, so ErrNotFound never trips the circuit.
*/
type Breaker struct {
	next types.Fetcher
	cb   *gobreaker.CircuitBreaker
}

var _ types.Fetcher = (*Breaker)(nil)

func NewBreaker(next types.Fetcher, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("faculty api circuit state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, types.ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Fetch(ctx context.Context, identity string) (types.Document, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Fetch(ctx, identity)
	})
	if err != nil {
		return nil, err
	}
	doc, _ := v.(types.Document)
	return doc, nil
}

// State reports the circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
