package cache

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/faculty-cache/auth"
	"github.com/krisalay/faculty-cache/engine"
	"github.com/krisalay/faculty-cache/refresh"
	"github.com/krisalay/faculty-cache/section"
	"github.com/krisalay/faculty-cache/tier"
	"github.com/krisalay/faculty-cache/types"
)

var (
	// ErrNoIdentity is returned by operations that need an identity in scope.
	ErrNoIdentity = errors.New("no identity in scope")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("data context closed")

	// ErrIdentityChanged is returned to a caller whose fetch completed after
	// the identity it was fetching for left scope. The result was dropped.
	ErrIdentityChanged = errors.New("identity changed while loading")
)

/*
DataContext is the single source of truth for one user's faculty data.

It connects:
- the cache tiers (memory, then session storage)
- the engine (freshness, remote fetch, remote writes, metrics)
- the auto-refresh scheduler
- the section registry

Every consumer reads sections from here and saves through here. Nothing
else holds section state.

Ordering rules:
- An identity switch bumps the epoch and cancels the old scope's context.
  Fetch results from an older epoch are dropped.
- Sections updated locally while a fetch is in flight are laid over the
  fetched document when it lands, so neither the update nor the fetch is
  lost.
- Concurrent loads for the same identity share one fetch (singleflight): a
  second Refresh while one is in flight joins it. The fetch runs on the
  scope's context; a caller's context only bounds its own wait.
*/
type DataContext struct {
	engine   *engine.CacheEngine
	tiers    *tier.Tiers
	sched    *refresh.Scheduler
	registry *section.Registry
	logger   *zap.Logger

	sf singleflight.Group

	mu    sync.Mutex
	state State
	epoch uint64
	// stamp is the timestamp of the entry behind state.Data.
	stamp int64
	// loading is true from the moment a fetch is decided until it is
	// applied; seq numbers each such load.
	loading bool
	seq     uint64
	pending map[string]types.Section
	scope   context.Context
	cancel  context.CancelFunc
	closed  bool

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New builds a data context. A nil scheduler gets a private one on the
// engine's clock, a nil registry gets section.Default, and nil tiers get a
// memory-only cache. Pass the same tiers to several contexts to share them.
func New(
	e *engine.CacheEngine,
	tiers *tier.Tiers,
	sched *refresh.Scheduler,
	registry *section.Registry,
	logger *zap.Logger,
) *DataContext {
	if e == nil {
		e = engine.NewCacheEngine(nil, nil, nil, nil, nil, logger)
	}
	if logger == nil {
		logger = e.Logger
	}
	if tiers == nil {
		tiers = tier.New(nil, nil, e.Metrics, logger)
	}
	if sched == nil {
		sched = refresh.NewScheduler(e.Clock, logger)
	}
	if registry == nil {
		registry = section.Default()
	}
	return &DataContext{
		engine:   e,
		tiers:    tiers,
		sched:    sched,
		registry: registry,
		logger:   logger,
		subs:     make(map[int]func(State)),
	}
}

//
// ================= SCOPE =================
//

/*
SetIdentity brings identity into scope.

An unresolved provider or an empty identity puts the context in Idle. An
identity already in scope is left alone. Otherwise the previous scope is
torn down (timer cancelled, in-flight fetch dropped) and the tiers are
consulted:

  - fresh hit: Ready at once, auto-refresh armed for the time left
  - stale hit or miss: Loading, then a remote fetch

The fetch runs on the calling goroutine; its error is returned and also
recorded in the state.
*/
func (c *DataContext) SetIdentity(ctx context.Context, identity string, resolved bool) error {
	if !resolved {
		identity = ""
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if identity == c.state.Identity {
		c.mu.Unlock()
		return nil
	}
	c.leaveLocked()

	if identity == "" {
		c.state = State{Status: StatusIdle}
		snap := c.state
		c.mu.Unlock()
		c.publish(snap)
		return nil
	}

	c.scope, c.cancel = context.WithCancel(context.Background())
	epoch := c.epoch
	c.state = State{Identity: identity, Status: StatusLoading}

	ent, hit := c.tiers.Get(identity)
	if hit && c.engine.IsFresh(ent) {
		remaining := c.engine.Remaining(ent)
		c.state.Status = StatusReady
		c.state.Data = c.registry.Normalize(ent.Data)
		c.stamp = ent.Timestamp
		c.scheduleLocked(identity, epoch, remaining)
		snap := c.state
		c.mu.Unlock()

		c.logger.Debug("serving cached faculty data",
			zap.String("identity", identity),
			zap.Duration("fresh_for", remaining),
		)
		c.publish(snap)
		return nil
	}
	if hit {
		c.engine.Metrics.Expire()
		c.state.Data = c.registry.Normalize(ent.Data)
		c.stamp = ent.Timestamp
	}
	seq := c.beginLoadLocked()
	snap := c.state
	c.mu.Unlock()

	c.publish(snap)
	_, err := c.load(ctx, identity, epoch, seq)
	return err
}

// Sync follows an auth provider's current identity.
func (c *DataContext) Sync(ctx context.Context, p auth.Provider) error {
	identity, resolved := p.Identity()
	return c.SetIdentity(ctx, identity, resolved)
}

// leaveLocked tears down the current scope. Caller holds c.mu.
func (c *DataContext) leaveLocked() {
	if c.state.Identity != "" {
		c.sched.Cancel(c.state.Identity)
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	c.stamp = 0
	c.loading = false
	c.pending = nil
}

// Close cancels the auto-refresh timer and any in-flight fetch's effect.
// The context is Idle afterwards and refuses further loads.
func (c *DataContext) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.leaveLocked()
	c.closed = true
	c.state = State{Status: StatusIdle}
	snap := c.state
	c.mu.Unlock()

	c.publish(snap)
}

//
// ================= LOADING =================
//

// Refresh re-fetches the current identity's document regardless of
// freshness. Both tiers are cleared first. A Refresh issued while a load
// is already in flight joins that load instead of starting another.
func (c *DataContext) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	identity, epoch := c.state.Identity, c.epoch
	c.mu.Unlock()

	if identity == "" {
		return ErrNoIdentity
	}
	return c.refresh(ctx, identity, epoch)
}

func (c *DataContext) refresh(ctx context.Context, identity string, epoch uint64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.epoch != epoch {
		c.mu.Unlock()
		return ErrIdentityChanged
	}
	if !c.loading {
		c.tiers.Clear(identity)
	}
	seq := c.beginLoadLocked()
	c.state.Status = StatusLoading
	snap := c.state
	c.mu.Unlock()

	c.publish(snap)
	_, err := c.load(ctx, identity, epoch, seq)
	return err
}

// beginLoadLocked marks a load as in flight and returns its sequence
// number. While one is in flight, callers get the same number and so join
// it. Caller holds c.mu.
func (c *DataContext) beginLoadLocked() uint64 {
	if !c.loading {
		c.loading = true
		c.seq++
		c.pending = make(map[string]types.Section)
	}
	return c.seq
}

func (c *DataContext) load(ctx context.Context, identity string, epoch, seq uint64) (types.Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	key := identity + "#" + strconv.FormatUint(epoch, 10) + "#" + strconv.FormatUint(seq, 10)
	ch := c.sf.DoChan(key, func() (any, error) {
		return c.fetchAndApply(identity, epoch)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("joined in-flight faculty data load", zap.String("identity", identity))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		doc, _ := res.Val.(types.Document)
		return doc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *DataContext) fetchAndApply(identity string, epoch uint64) (types.Document, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil, ErrIdentityChanged
	}
	scope := c.scope
	c.mu.Unlock()

	doc, err := c.engine.Load(scope, identity)

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Info("dropping faculty data fetched for an identity no longer in scope",
			zap.String("identity", identity),
		)
		return nil, ErrIdentityChanged
	}
	pending := c.pending
	c.loading = false
	c.pending = nil

	if err != nil {
		c.state.Status = StatusError
		c.state.Err = err
		snap := c.state
		c.mu.Unlock()
		c.publish(snap)
		return nil, err
	}

	doc = c.registry.Normalize(doc)
	if len(pending) > 0 {
		names := make([]string, 0, len(pending))
		for name, sec := range pending {
			doc = doc.With(name, sec)
			names = append(names, name)
		}
		sort.Strings(names)
		c.logger.Info("kept sections updated locally during the fetch",
			zap.String("identity", identity),
			zap.Strings("sections", names),
		)
	}
	c.stamp = c.engine.NowMillis()
	c.tiers.Set(identity, types.NewEntry(doc, c.stamp))
	c.state = State{Identity: identity, Status: StatusReady, Data: doc}
	c.scheduleLocked(identity, epoch, c.engine.TTL())
	snap := c.state
	c.mu.Unlock()

	c.publish(snap)
	return doc, nil
}

//
// ================= AUTO-REFRESH =================
//

// scheduleLocked arms the auto-refresh for identity. Caller holds c.mu.
func (c *DataContext) scheduleLocked(identity string, epoch uint64, delay time.Duration) {
	c.sched.Schedule(identity, delay, func() { c.autoRefresh(identity, epoch) })
}

// autoRefresh is the timer callback. A successful load re-arms itself for
// the full TTL; a failed one keeps the stale data and re-arms here.
func (c *DataContext) autoRefresh(identity string, epoch uint64) {
	err := c.refresh(context.Background(), identity, epoch)
	if err == nil || errors.Is(err, ErrIdentityChanged) || errors.Is(err, ErrClosed) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		return
	}
	c.logger.Warn("auto-refresh failed; serving stale faculty data",
		zap.String("identity", identity),
		zap.Error(err),
	)
	c.scheduleLocked(identity, epoch, c.engine.TTL())
}

//
// ================= UPDATES =================
//

/*
UpdateSection replaces one whole section locally.

No remote call is made; persisting the change is the caller's job (see
SaveSection). Without a loaded document there is nothing to patch, so the
call is dropped with a warning.

Only a Ready document is restamped. In any other status the entry keeps
its timestamp, so patching stale data never makes it fresh; a fetch in
flight keeps the patched section when it lands.
*/
func (c *DataContext) UpdateSection(name string, value types.Section) {
	c.mu.Lock()
	if c.state.Identity == "" || c.state.Data == nil {
		status := c.state.Status
		c.mu.Unlock()
		c.logger.Warn("section update ignored: no faculty data loaded",
			zap.String("section", name),
			zap.Stringer("status", status),
		)
		return
	}
	c.applyLocked(name, value)
	snap := c.state
	c.mu.Unlock()

	c.publish(snap)
}

// SaveSection persists a section remotely, then applies it locally. A
// remote failure is returned and leaves the cache untouched.
func (c *DataContext) SaveSection(ctx context.Context, name string, value types.Section) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	identity, epoch := c.state.Identity, c.epoch
	c.mu.Unlock()

	if identity == "" {
		return ErrNoIdentity
	}
	if err := c.engine.Persist(ctx, identity, name, value); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed || c.epoch != epoch || c.state.Data == nil {
		c.mu.Unlock()
		c.logger.Info("section saved remotely; no loaded document to patch",
			zap.String("identity", identity),
			zap.String("section", name),
		)
		return nil
	}
	c.applyLocked(name, value)
	snap := c.state
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// applyLocked patches the current document. Caller holds c.mu and has
// checked that Data is present.
func (c *DataContext) applyLocked(name string, value types.Section) {
	sec, err := value.Canonical()
	if err != nil {
		c.logger.Warn("section is not JSON-encodable; it will not survive a reload",
			zap.String("section", name),
			zap.Error(err),
		)
		sec = value
	}
	sec = c.registry.NormalizeSection(name, sec)
	if dups := sec.DuplicateIDs(); len(dups) > 0 {
		c.logger.Warn("section has duplicate record ids",
			zap.String("section", name),
			zap.Strings("ids", dups),
		)
	}

	doc := c.state.Data.With(name, sec)
	if c.state.Status == StatusReady {
		c.stamp = c.engine.NowMillis()
	}
	c.tiers.Set(c.state.Identity, types.NewEntry(doc, c.stamp))
	if c.loading {
		c.pending[name] = sec
	}
	c.state.Data = doc
}

//
// ================= SUBSCRIPTIONS =================
//

// Subscribe registers fn for every state change. fn runs outside the
// context's lock and may call back into it.
func (c *DataContext) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *DataContext) publish(s State) {
	c.subMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
