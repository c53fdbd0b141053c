package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/portfolio-search/internal/clock"
)

const (
	// DefaultTTL applies when GetOrLoad is called with ttl <= 0
	DefaultTTL = 5 * time.Minute
	// DefaultCapacity bounds the number of cached keys
	DefaultCapacity = 256
)

// Loader produces the value for a key on miss or expiry
type Loader func(ctx context.Context) (any, error)

// entry represents a cached value with its insertion time
type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

// stale reports whether now - insertedAt > ttl
func (e *entry) stale(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Stats is a point-in-time snapshot of cache counters
type Stats struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Loads      uint64 `json:"loads"`
	LoadErrors uint64 `json:"load_errors"`
	Fallbacks  uint64 `json:"fallbacks"`
	Entries    int    `json:"entries"`
}

// Manager is a get-or-load cache with per-key TTL and single-flight loading.
// It is safe for concurrent use and meant to be shared process-wide.
type Manager struct {
	store *lru.Cache[string, *entry]
	group singleflight.Group
	clock clock.Clock

	defaultTTL time.Duration
	softStale  time.Duration
	logger     *slog.Logger

	// inflight tracks running loads per key so an invalidation can stop
	// their values from being stored. Keys leave the map when their last
	// load finishes.
	mu       sync.Mutex
	inflight map[string][]*loadToken

	hits       atomic.Uint64
	misses     atomic.Uint64
	loads      atomic.Uint64
	loadErrors atomic.Uint64
	fallbacks  atomic.Uint64
}

// Option configures a Manager
type Option func(*Manager)

// WithClock sets the time source used for TTL checks
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDefaultTTL sets the TTL used when callers pass ttl <= 0
func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.defaultTTL = ttl
		}
	}
}

// WithSoftStale allows a failed reload to fall back to the last-good value as
// long as it is no older than ttl + window. Zero disables the fallback.
func WithSoftStale(window time.Duration) Option {
	return func(m *Manager) {
		if window > 0 {
			m.softStale = window
		}
	}
}

// WithLogger sets the logger for fallback and eviction messages
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Manager holding at most capacity keys (LRU eviction)
func New(capacity int, opts ...Option) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	store, err := lru.New[string, *entry](capacity)
	if err != nil {
		// This should never happen with a positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	m := &Manager{
		store:      store,
		clock:      clock.System{},
		defaultTTL: DefaultTTL,
		logger:     slog.Default(),
		inflight:   make(map[string][]*loadToken),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrLoad returns the cached value for key when it is fresh. Otherwise it
// invokes loader, stores the result stamped with the current time, and
// returns it. Concurrent callers for the same key share one loader call.
// Loader errors are never cached.
func (m *Manager) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader Loader) (any, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	if e, ok := m.store.Get(key); ok && !e.stale(m.clock.Now()) {
		m.hits.Add(1)
		return e.value, nil
	}
	m.misses.Add(1)

	// The shared load must outlive any single waiter; each waiter still
	// honours its own context below.
	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		return m.load(loadCtx, key, ttl, loader)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load runs inside the single-flight group for key
func (m *Manager) load(ctx context.Context, key string, ttl time.Duration, loader Loader) (any, error) {
	// Another flight may have filled the key while we queued
	if e, ok := m.store.Get(key); ok && !e.stale(m.clock.Now()) {
		return e.value, nil
	}

	token := m.begin(key)
	m.loads.Add(1)

	value, err := loader(ctx)
	if err != nil {
		m.mu.Lock()
		m.finishLocked(key, token)
		m.mu.Unlock()

		m.loadErrors.Add(1)
		if fallback, ok := m.lastGood(key); ok {
			m.fallbacks.Add(1)
			m.logger.Warn("cache reload failed, serving last-good value",
				"key", key, "error", err)
			return fallback, nil
		}
		return nil, err
	}

	m.mu.Lock()
	if !token.invalidated {
		m.store.Add(key, &entry{value: value, insertedAt: m.clock.Now(), ttl: ttl})
	} else {
		m.logger.Debug("discarding value loaded across invalidation", "key", key)
	}
	m.finishLocked(key, token)
	m.mu.Unlock()

	return value, nil
}

// lastGood returns an expired entry still inside the soft-stale window
func (m *Manager) lastGood(key string) (any, bool) {
	if m.softStale <= 0 {
		return nil, false
	}
	e, ok := m.store.Peek(key)
	if !ok {
		return nil, false
	}
	if m.clock.Now().Sub(e.insertedAt) > e.ttl+m.softStale {
		return nil, false
	}
	return e.value, true
}

// loadToken marks one running load. invalidated is guarded by Manager.mu.
type loadToken struct {
	invalidated bool
}

func (m *Manager) begin(key string) *loadToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &loadToken{}
	m.inflight[key] = append(m.inflight[key], t)
	return t
}

// finishLocked must be called with mu held
func (m *Manager) finishLocked(key string, t *loadToken) {
	tokens := m.inflight[key]
	for i, cur := range tokens {
		if cur == t {
			tokens = append(tokens[:i], tokens[i+1:]...)
			break
		}
	}
	if len(tokens) == 0 {
		delete(m.inflight, key)
		return
	}
	m.inflight[key] = tokens
}

// invalidateLocked must be called with mu held
func (m *Manager) invalidateLocked(key string) {
	for _, t := range m.inflight[key] {
		t.invalidated = true
	}
	m.store.Remove(key)
}

// pending returns the number of keys with a load in flight
func (m *Manager) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

// Peek returns the stored value for key regardless of freshness
func (m *Manager) Peek(key string) (value any, insertedAt time.Time, ok bool) {
	e, found := m.store.Peek(key)
	if !found {
		return nil, time.Time{}, false
	}
	return e.value, e.insertedAt, true
}

// Invalidate removes key immediately. A load for key already in flight
// still completes for its waiters but its value is not stored.
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	m.invalidateLocked(key)
	m.mu.Unlock()
	m.group.Forget(key)
}

// InvalidatePrefix removes every key starting with prefix
func (m *Manager) InvalidatePrefix(prefix string) {
	m.invalidateMatching(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

// InvalidateAll removes every entry immediately
func (m *Manager) InvalidateAll() {
	m.invalidateMatching(func(string) bool { return true })
}

func (m *Manager) invalidateMatching(match func(key string) bool) {
	m.mu.Lock()
	seen := make(map[string]struct{})
	for key := range m.inflight {
		if match(key) {
			seen[key] = struct{}{}
		}
	}
	for _, key := range m.store.Keys() {
		if match(key) {
			seen[key] = struct{}{}
		}
	}
	for key := range seen {
		m.invalidateLocked(key)
	}
	m.mu.Unlock()

	for key := range seen {
		m.group.Forget(key)
	}
}

// Stats returns current counters
func (m *Manager) Stats() Stats {
	return Stats{
		Hits:       m.hits.Load(),
		Misses:     m.misses.Load(),
		Loads:      m.loads.Load(),
		LoadErrors: m.loadErrors.Load(),
		Fallbacks:  m.fallbacks.Load(),
		Entries:    m.store.Len(),
	}
}

// Load is a typed wrapper around Manager.GetOrLoad
func Load[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := m.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %s holds %T, not %T", key, v, zero)
	}
	return typed, nil
}
