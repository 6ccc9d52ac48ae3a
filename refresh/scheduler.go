// This file implements the auto-refresh timer: one pending refresh per
// identity, re-armed every time that identity's data is (re)loaded.

package refresh

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/types"
)

type armed struct {
	timer types.Timer
	gen   uint64
}

/*
Scheduler holds at most one timer per identity.

Arming an identity again stops its previous timer first. Stopping can lose a
race with a timer that is already firing, so every timer also carries a
generation: a callback whose generation is no longer current returns without
calling onFire. That is what guarantees no two refreshes run from timers for
the same identity.
*/
type Scheduler struct {
	clock  types.Clock
	logger *zap.Logger

	mu     sync.Mutex
	timers map[string]*armed
	gen    uint64
}

func NewScheduler(clock types.Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{clock: clock, logger: logger, timers: make(map[string]*armed)}
}

// Schedule arms onFire to run after delay, replacing identity's timer.
func (s *Scheduler) Schedule(identity string, delay time.Duration, onFire func()) {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[identity]; ok {
		old.timer.Stop()
	}
	s.gen++
	gen := s.gen
	a := &armed{gen: gen}
	s.timers[identity] = a
	a.timer = s.clock.AfterFunc(delay, func() { s.fire(identity, gen, onFire) })

	s.logger.Debug("auto-refresh scheduled",
		zap.String("identity", identity),
		zap.Duration("delay", delay),
	)
}

func (s *Scheduler) fire(identity string, gen uint64, onFire func()) {
	s.mu.Lock()
	a, ok := s.timers[identity]
	if !ok || a.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, identity)
	s.mu.Unlock()

	s.logger.Debug("auto-refresh fired", zap.String("identity", identity))
	onFire()
}

// Cancel stops identity's timer, if any.
func (s *Scheduler) Cancel(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.timers[identity]; ok {
		a.timer.Stop()
		delete(s.timers, identity)
	}
}

// Stop cancels every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for identity, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, identity)
	}
}

// Pending reports whether identity has an armed timer.
func (s *Scheduler) Pending(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[identity]
	return ok
}
