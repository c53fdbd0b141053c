package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/dshills/portfolio-search/internal/cache"
	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/pkg/types"
)

// IndexKey is the cache key of the assembled search index
const IndexKey = "search:index"

// ContentLoader produces the aggregated record set the index is built from.
// *content.Aggregator implements it.
type ContentLoader interface {
	Load(ctx context.Context) (*content.Aggregate, error)
	Invalidate()
}

// Status describes the current index snapshot
type Status struct {
	Ready    bool      `json:"ready"`
	Records  int       `json:"records"`
	Dropped  int       `json:"dropped"`
	Degraded []string  `json:"degraded,omitempty"`
	BuiltAt  time.Time `json:"builtAt,omitempty"`
	// Stale is set when the published index is no longer the cached one
	// (evicted or invalidated); the next query rebuilds it.
	Stale bool        `json:"stale"`
	Cache cache.Stats `json:"cache"`
}

// Searcher serves queries against a cached, atomically swapped index
type Searcher struct {
	loader   ContentLoader
	cache    *cache.Manager
	weights  Weights
	indexTTL time.Duration
	logger   *slog.Logger

	current atomic.Pointer[snapshot]
	seq     atomic.Uint64
}

// snapshot pairs an index with the aggregation it was built from
type snapshot struct {
	index    *Index
	seq      uint64
	dropped  int
	degraded []string
}

// Option configures a Searcher
type Option func(*Searcher)

// WithWeights sets the field weights used for new index builds
func WithWeights(w Weights) Option {
	return func(s *Searcher) {
		if w.valid() {
			s.weights = w
		}
	}
}

// WithIndexTTL sets how long a built index stays fresh
func WithIndexTTL(ttl time.Duration) Option {
	return func(s *Searcher) {
		if ttl > 0 {
			s.indexTTL = ttl
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Searcher. A nil cache gets a private one.
func New(loader ContentLoader, cm *cache.Manager, opts ...Option) *Searcher {
	if cm == nil {
		cm = cache.New(cache.DefaultCapacity)
	}
	s := &Searcher{
		loader:   loader,
		cache:    cm,
		weights:  DefaultWeights(),
		indexTTL: cache.DefaultTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates q and queries the current index. It returns a
// *types.ValidationError for malformed queries, without touching the cache,
// and an error wrapping types.ErrSearchUnavailable when the index cannot be
// built.
func (s *Searcher) Search(ctx context.Context, q string, opts Options) ([]types.SearchResult, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.index.Query(q, opts), nil
}

// SearchOrEmpty is Search with short and empty queries mapped to an empty
// result instead of a validation error. The loader is not invoked for them.
func (s *Searcher) SearchOrEmpty(ctx context.Context, q string, opts Options) ([]types.SearchResult, error) {
	if utf8.RuneCountInString(strings.TrimSpace(q)) < MinQueryLength {
		return []types.SearchResult{}, nil
	}
	return s.Search(ctx, q, opts)
}

// Suggest returns up to MaxSuggestions autocomplete strings for q. Queries
// shorter than MinQueryLength return an empty list without loading content.
func (s *Searcher) Suggest(ctx context.Context, q string) ([]string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(q)) < MinQueryLength {
		return []string{}, nil
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.index.Suggest(q), nil
}

// Filter lists the records matching f, unscored, in index order
func (s *Searcher) Filter(ctx context.Context, f Filter) ([]types.SearchableRecord, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.index.Filter(f), nil
}

// Warm builds the index if it is not already cached
func (s *Searcher) Warm(ctx context.Context) error {
	_, err := s.snapshot(ctx)
	return err
}

// Invalidate drops all cached source content, then the cached index. The
// next query rebuilds from the sources. The order matters: a query landing
// between the two must not rebuild the index from old content.
func (s *Searcher) Invalidate() {
	s.loader.Invalidate()
	s.cache.Invalidate(IndexKey)
	s.current.Store(nil)
	s.logger.Info("search cache invalidated")
}

// ClearCache is an alias for Invalidate
func (s *Searcher) ClearCache() {
	s.Invalidate()
}

// Status reports on the last published snapshot without building one
func (s *Searcher) Status() Status {
	st := Status{Cache: s.cache.Stats()}
	if snap := s.current.Load(); snap != nil {
		st.Ready = true
		st.Records = snap.index.Len()
		st.Dropped = snap.dropped
		st.Degraded = append([]string(nil), snap.degraded...)
		st.BuiltAt = snap.index.BuiltAt()
		cached, _, ok := s.cache.Peek(IndexKey)
		st.Stale = !ok || cached != snap
	}
	return st
}

// snapshot returns the cached snapshot, building it on a miss, and publishes
// it as current
func (s *Searcher) snapshot(ctx context.Context) (*snapshot, error) {
	snap, err := cache.Load(ctx, s.cache, IndexKey, s.indexTTL, s.build)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", types.ErrSearchUnavailable, err)
	}
	s.publish(snap)
	return snap, nil
}

// publish swaps snap in unless a newer snapshot is already current
func (s *Searcher) publish(snap *snapshot) {
	for {
		cur := s.current.Load()
		if cur != nil && cur.seq >= snap.seq {
			return
		}
		if s.current.CompareAndSwap(cur, snap) {
			s.logger.Debug("search index swapped", "records", snap.index.Len(), "seq", snap.seq)
			return
		}
	}
}

// build aggregates content and indexes it. It runs inside the cache's
// single flight for IndexKey.
func (s *Searcher) build(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	agg, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("failed to build search index", "error", err)
		return nil, err
	}

	snap := &snapshot{
		index:    BuildIndex(agg.Records, s.weights),
		seq:      s.seq.Add(1),
		dropped:  agg.Dropped,
		degraded: agg.Degraded,
	}
	s.logger.Info("search index built",
		"records", snap.index.Len(),
		"dropped", agg.Dropped,
		"degraded", len(agg.Degraded),
		"duration", time.Since(start))
	return snap, nil
}
