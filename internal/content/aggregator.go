package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/portfolio-search/internal/cache"
	"github.com/dshills/portfolio-search/internal/clock"
	"github.com/dshills/portfolio-search/pkg/types"
)

// Policy decides what happens when a source fails
type Policy string

const (
	// PolicyFailFast fails the whole aggregation when any source fails
	PolicyFailFast Policy = "fail_fast"
	// PolicyPartial indexes the sources that succeeded and reports the rest as degraded
	PolicyPartial Policy = "partial"
)

// ParsePolicy parses a policy name; empty means fail-fast
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyFailFast:
		return PolicyFailFast, nil
	case PolicyPartial:
		return PolicyPartial, nil
	}
	return "", fmt.Errorf("unknown aggregation policy %q", s)
}

// ContentKeyPrefix prefixes the cache keys of raw per-source content
const ContentKeyPrefix = "content:"

// Config contains configuration for the aggregator
type Config struct {
	SourceTimeout time.Duration // Per-source load timeout (default: 10s)
	Retry         RetryConfig   // Backoff for failed source loads
	Policy        Policy        // Failure policy (default: fail-fast)
	ContentTTL    time.Duration // TTL of cached raw content when a cache is set (default: 5m)
}

// DefaultConfig returns the aggregator defaults
func DefaultConfig() Config {
	return Config{
		SourceTimeout: 10 * time.Second,
		Retry:         DefaultRetryConfig(),
		Policy:        PolicyFailFast,
		ContentTTL:    cache.DefaultTTL,
	}
}

// Aggregate is the normalized output of one aggregation
type Aggregate struct {
	Records  []types.SearchableRecord
	Dropped  int       // Records rejected by validation
	Degraded []string  // Sources skipped under PolicyPartial
	LoadedAt time.Time // When the aggregation finished
}

// Aggregator fans out to every registered source and joins the results
type Aggregator struct {
	sources []Source
	config  Config
	cache   *cache.Manager
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithCache caches each source's raw content under "content:<name>"
func WithCache(m *cache.Manager) Option {
	return func(a *Aggregator) { a.cache = m }
}

// WithLogger sets the logger for dropped records and source failures
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock sets the clock used to stamp aggregates
func WithClock(c clock.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// NewAggregator creates an aggregator over sources, loaded in parallel
func NewAggregator(config Config, sources []Source, opts ...Option) *Aggregator {
	defaults := DefaultConfig()
	if config.SourceTimeout <= 0 {
		config.SourceTimeout = defaults.SourceTimeout
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = defaults.Retry
	}
	if config.Policy == "" {
		config.Policy = defaults.Policy
	}
	if config.ContentTTL <= 0 {
		config.ContentTTL = defaults.ContentTTL
	}

	a := &Aggregator{
		sources: sources,
		config:  config,
		clock:   clock.System{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources returns the registered source names in registration order
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// Load fetches every source concurrently and normalizes the result. Records
// keep source registration order, then each source's own order.
func (a *Aggregator) Load(ctx context.Context) (*Aggregate, error) {
	raw := make([][]RawContent, len(a.sources))
	failed := make([]error, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			records, err := a.loadSource(gctx, src)
			if err != nil {
				loadErr := &types.ContentLoadError{Source: src.Name(), Err: err}
				if a.config.Policy == PolicyPartial {
					failed[i] = loadErr
					return nil
				}
				return loadErr
			}
			raw[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Error("content aggregation failed", "error", err)
		return nil, err
	}

	agg := &Aggregate{}
	seen := make(map[string]struct{})
	for i, src := range a.sources {
		if failed[i] != nil {
			a.logger.Warn("content source degraded", "source", src.Name(), "error", failed[i])
			agg.Degraded = append(agg.Degraded, src.Name())
			continue
		}
		for _, item := range raw[i] {
			rec, err := Normalize(src.Name(), item)
			if err != nil {
				agg.Dropped++
				a.logger.Warn("dropping invalid record", "source", src.Name(), "error", err)
				continue
			}
			if _, dup := seen[rec.Key()]; dup {
				agg.Dropped++
				a.logger.Warn("dropping duplicate record", "source", src.Name(), "key", rec.Key())
				continue
			}
			seen[rec.Key()] = struct{}{}
			agg.Records = append(agg.Records, rec)
		}
	}

	if len(agg.Degraded) == len(a.sources) && len(a.sources) > 0 {
		return nil, &types.ContentLoadError{Source: "all", Err: errors.Join(failed...)}
	}

	agg.LoadedAt = a.clock.Now()
	a.logger.Debug("content aggregated",
		"records", len(agg.Records), "dropped", agg.Dropped, "degraded", len(agg.Degraded))
	return agg, nil
}

// loadSource runs one source under its timeout and retry budget, through the
// content cache when one is configured
func (a *Aggregator) loadSource(ctx context.Context, src Source) ([]RawContent, error) {
	fetch := func(ctx context.Context) ([]RawContent, error) {
		return retryWithBackoff(ctx, a.config.Retry, func(ctx context.Context) ([]RawContent, error) {
			tctx, cancel := context.WithTimeout(ctx, a.config.SourceTimeout)
			defer cancel()
			return src.Load(tctx)
		})
	}

	if a.cache == nil {
		return fetch(ctx)
	}
	return cache.Load(ctx, a.cache, ContentKeyPrefix+src.Name(), a.config.ContentTTL, fetch)
}

// Invalidate drops the cached raw content of every source
func (a *Aggregator) Invalidate() {
	if a.cache != nil {
		a.cache.InvalidatePrefix(ContentKeyPrefix)
	}
}
