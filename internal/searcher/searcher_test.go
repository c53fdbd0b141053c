package searcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/internal/cache"
	"github.com/dshills/portfolio-search/internal/clock"
	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/pkg/types"
)

// countingSource counts Load calls and returns a fixed record set or error
type countingSource struct {
	name    string
	calls   atomic.Int32
	records []content.RawContent
	err     error
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) Load(ctx context.Context) ([]content.RawContent, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type fixture struct {
	searcher *Searcher
	projects *countingSource
	writing  *countingSource
	clock    *clock.Fake
}

func newFixture(t *testing.T, policy content.Policy, opts ...Option) *fixture {
	t.Helper()

	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm := cache.New(16, cache.WithClock(fake), cache.WithLogger(logger))

	projects := &countingSource{name: "projects", records: []content.RawContent{
		&content.Project{
			Slug:         "gateway",
			Title:        "Payment Gateway",
			Description:  "Card processing gateway in Go.",
			Tags:         []string{"fintech"},
			Technologies: []types.Technology{{Name: "Go"}},
		},
		&content.Project{Slug: "ledger", Title: "Ledger", Description: "Double-entry accounting service."},
	}}
	writing := &countingSource{name: "writing", records: []content.RawContent{
		&content.Writing{
			Slug:     "payments",
			Title:    "Building Scalable Payment Systems",
			Tags:     []string{"payments"},
			Platform: "Medium",
			Featured: true,
		},
		&content.Writing{Slug: "microservices", Title: "Microservices Patterns", Platform: "Dev.to"},
		&content.Writing{Slug: "aws-cost", Title: "AWS Cost Optimization", Platform: "Tech Blog", Featured: true},
	}}

	cfg := content.DefaultConfig()
	cfg.SourceTimeout = time.Second
	cfg.Retry = content.RetryConfig{MaxAttempts: 1}
	cfg.Policy = policy
	agg := content.NewAggregator(cfg, []content.Source{projects, writing},
		content.WithCache(cm), content.WithClock(fake), content.WithLogger(logger))

	opts = append([]Option{WithLogger(logger)}, opts...)
	return &fixture{
		searcher: New(agg, cm, opts...),
		projects: projects,
		writing:  writing,
		clock:    fake,
	}
}

func (f *fixture) calls() (int32, int32) {
	return f.projects.calls.Load(), f.writing.calls.Load()
}

func TestSearch(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	ctx := context.Background()

	results, err := f.searcher.Search(ctx, "payment gateway", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "gateway", results[0].Record.ID)
	assert.Equal(t, 1.0, results[0].Relevance)

	results, err = f.searcher.Search(ctx, "payment", Options{Filter: Filter{Type: types.RecordWriting}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "payments", results[0].Record.ID)

	p, w := f.calls()
	assert.Equal(t, int32(1), p)
	assert.Equal(t, int32(1), w)
}

func TestSearchValidationSkipsLoad(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	ctx := context.Background()

	_, err := f.searcher.Search(ctx, "a", Options{})
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, types.ReasonTooShort, verr.Reason)

	_, err = f.searcher.Search(ctx, "!!!?", Options{})
	assert.True(t, errors.Is(err, types.ErrInvalidQuery))

	p, w := f.calls()
	assert.Zero(t, p)
	assert.Zero(t, w)
	assert.Zero(t, f.searcher.Status().Cache.Misses)
}

func TestShortQueriesReturnEmpty(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	ctx := context.Background()

	for _, q := range []string{"", " ", "a", " p "} {
		results, err := f.searcher.SearchOrEmpty(ctx, q, Options{})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)

		suggestions, err := f.searcher.Suggest(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{}, suggestions)
	}

	p, w := f.calls()
	assert.Zero(t, p)
	assert.Zero(t, w)
	assert.False(t, f.searcher.Status().Ready)
}

func TestSearcherSuggest(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)

	got, err := f.searcher.Suggest(context.Background(), "pay")
	require.NoError(t, err)
	assert.Equal(t, []string{"Payment Gateway", "payments"}, got)
}

func TestSearcherFilter(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	ctx := context.Background()
	yes := true

	medium, err := f.searcher.Filter(ctx, Filter{Platform: "Medium"})
	require.NoError(t, err)
	require.Len(t, medium, 1)
	assert.Equal(t, "Building Scalable Payment Systems", medium[0].Title)

	featured, err := f.searcher.Filter(ctx, Filter{Featured: &yes})
	require.NoError(t, err)
	assert.Len(t, featured, 2)

	both, err := f.searcher.Filter(ctx, Filter{Platform: "Medium", Featured: &yes})
	require.NoError(t, err)
	assert.Len(t, both, 1)
}

func TestSearchUnavailable(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	f.writing.err = errors.New("feed down")

	_, err := f.searcher.Search(context.Background(), "payment", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSearchUnavailable))
	assert.True(t, errors.Is(err, types.ErrContentLoad))

	var loadErr *types.ContentLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "writing", loadErr.Source)
	assert.False(t, f.searcher.Status().Ready)

	// failures are not cached
	f.writing.err = nil
	results, err := f.searcher.Search(context.Background(), "payment", Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSearchPartialDegraded(t *testing.T) {
	f := newFixture(t, content.PolicyPartial)
	f.writing.err = errors.New("feed down")

	results, err := f.searcher.Search(context.Background(), "payment", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gateway", results[0].Record.ID)

	st := f.searcher.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, []string{"writing"}, st.Degraded)
}

func TestClearCacheRefetchesOnce(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	ctx := context.Background()

	_, err := f.searcher.Search(ctx, "payment", Options{})
	require.NoError(t, err)

	f.searcher.ClearCache()
	assert.False(t, f.searcher.Status().Ready)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.searcher.Search(ctx, "payment", Options{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	p, w := f.calls()
	assert.Equal(t, int32(2), p)
	assert.Equal(t, int32(2), w)
	assert.True(t, f.searcher.Status().Ready)
}

// interleavingLoader runs before on every Invalidate, ahead of the wrapped
// loader's own invalidation
type interleavingLoader struct {
	ContentLoader
	before func()
}

func (l *interleavingLoader) Invalidate() {
	if l.before != nil {
		l.before()
	}
	l.ContentLoader.Invalidate()
}

func TestClearCacheWithConcurrentQuery(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)
	ctx := context.Background()

	f.searcher.loader = &interleavingLoader{
		ContentLoader: f.searcher.loader,
		before: func() {
			_, err := f.searcher.Search(ctx, "payment", Options{})
			assert.NoError(t, err)
		},
	}

	require.NoError(t, f.searcher.Warm(ctx))
	f.projects.records = []content.RawContent{
		&content.Project{Slug: "ledger", Title: "General Ledger Service"},
	}

	f.searcher.ClearCache()

	results, err := f.searcher.Search(ctx, "general ledger", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ledger", results[0].Record.ID)

	p, w := f.calls()
	assert.Equal(t, int32(2), p)
	assert.Equal(t, int32(2), w)
}

func TestIndexTTL(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast, WithIndexTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, f.searcher.Warm(ctx))

	// index expires, raw content is still fresh
	f.clock.Advance(2 * time.Minute)
	require.NoError(t, f.searcher.Warm(ctx))
	p, w := f.calls()
	assert.Equal(t, int32(1), p)
	assert.Equal(t, int32(1), w)

	// both expire
	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.searcher.Warm(ctx))
	p, w = f.calls()
	assert.Equal(t, int32(2), p)
	assert.Equal(t, int32(2), w)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, content.PolicyFailFast)

	st := f.searcher.Status()
	assert.False(t, st.Ready)
	assert.Zero(t, st.Records)

	require.NoError(t, f.searcher.Warm(context.Background()))

	st = f.searcher.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, 5, st.Records)
	assert.Empty(t, st.Degraded)
	assert.False(t, st.BuiltAt.IsZero())
	assert.False(t, st.Stale)
	assert.Equal(t, 3, st.Cache.Entries)

	f.searcher.cache.Invalidate(IndexKey)
	st = f.searcher.Status()
	assert.True(t, st.Ready)
	assert.True(t, st.Stale)
}

func TestPublishKeepsNewest(t *testing.T) {
	s := New(nil, nil)
	newer := &snapshot{index: BuildIndex(nil, DefaultWeights()), seq: 2}
	older := &snapshot{index: BuildIndex(nil, DefaultWeights()), seq: 1}

	s.publish(newer)
	s.publish(older)
	assert.Same(t, newer, s.current.Load())
}
