// Package cache implements the process-wide get-or-load cache that shields
// content sources and the assembled search index from redundant fetches.
//
// # Basic Usage
//
//	m := cache.New(256, cache.WithClock(clock.System{}))
//
//	idx, err := cache.Load(ctx, m, "search:index", 5*time.Minute,
//	    func(ctx context.Context) (*searcher.Index, error) {
//	        return buildIndex(ctx)
//	    })
//
// # Freshness
//
// An entry is stale once now - insertedAt > ttl. TTLs are chosen per call so
// raw per-source content and the assembled index can expire independently.
// The clock is injectable; tests drive expiry with clock.Fake instead of
// sleeping.
//
// # Single-flight
//
// Concurrent callers that miss on the same key wait for one shared loader
// call (golang.org/x/sync/singleflight). A caller whose context is cancelled
// stops waiting; the shared load keeps running for the others. Loader errors
// are returned to every waiter and never cached.
//
// # Invalidation
//
// Invalidate, InvalidatePrefix, and InvalidateAll remove entries immediately
// and mark every load of a matching key that is still running, so a load that
// started before the invalidation cannot write its (possibly outdated) value
// back. Only keys with a running load are tracked.
//
// # Soft-stale fallback
//
// WithSoftStale(window) lets a failed reload return the previous value while
// it is younger than ttl + window. Fallbacks are logged and counted in Stats.
//
// Storage is bounded by an LRU (hashicorp/golang-lru/v2).
package cache
