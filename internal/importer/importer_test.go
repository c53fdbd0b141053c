package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/internal/logging"
)

// memStore records imports per source
type memStore struct {
	mu       sync.Mutex
	imported map[string][]content.RawContent
	fail     map[string]error
}

func newMemStore() *memStore {
	return &memStore{imported: make(map[string][]content.RawContent), fail: make(map[string]error)}
}

func (s *memStore) Import(ctx context.Context, source string, items []content.RawContent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[source]; err != nil {
		return 0, err
	}
	s.imported[source] = items
	return len(items), nil
}

func projects(slugs ...string) []content.RawContent {
	out := make([]content.RawContent, len(slugs))
	for i, s := range slugs {
		out[i] = &content.Project{Slug: s, Title: s}
	}
	return out
}

func TestImport(t *testing.T) {
	store := newMemStore()
	store.fail["db-broken"] = errors.New("disk full")
	im := New(store, logging.Discard())

	sources := []content.Source{
		content.NewStaticSource("files/projects", projects("gateway", "ledger")...),
		content.NewStaticSource("files/empty"),
		content.SourceFunc{SourceName: "feed/Medium", Fn: func(ctx context.Context) ([]content.RawContent, error) {
			return nil, errors.New("502 bad gateway")
		}},
		content.NewStaticSource("db-broken", projects("x")...),
	}

	stats, err := im.Import(context.Background(), sources, &Config{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SourcesImported)
	assert.Equal(t, 2, stats.SourcesFailed)
	assert.Equal(t, 2, stats.RecordsImported)
	assert.Equal(t, map[string]int{"files/projects": 2, "files/empty": 0}, stats.PerSource)
	require.Len(t, stats.ErrorMessages, 2)
	assert.Equal(t, "db-broken: failed to store: disk full", stats.ErrorMessages[0])
	assert.Equal(t, "feed/Medium: failed to load: 502 bad gateway", stats.ErrorMessages[1])

	assert.Len(t, store.imported["files/projects"], 2)
	assert.NotContains(t, store.imported, "feed/Medium")
}

func TestImportDefaultConfig(t *testing.T) {
	store := newMemStore()
	im := New(store, nil)

	var sources []content.Source
	for i := 0; i < 20; i++ {
		sources = append(sources, content.NewStaticSource(fmt.Sprintf("src-%02d", i), projects(fmt.Sprintf("p%d", i))...))
	}

	stats, err := im.Import(context.Background(), sources, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.SourcesImported)
	assert.Equal(t, 20, stats.RecordsImported)
	assert.Len(t, store.imported, 20)
}

func TestImportInProgress(t *testing.T) {
	im := New(newMemStore(), logging.Discard())

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := content.SourceFunc{SourceName: "slow", Fn: func(ctx context.Context) ([]content.RawContent, error) {
		close(started)
		<-release
		return projects("a"), nil
	}}

	done := make(chan error, 1)
	go func() {
		_, err := im.Import(context.Background(), []content.Source{blocking}, nil)
		done <- err
	}()
	<-started

	_, err := im.Import(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrImportInProgress)

	close(release)
	require.NoError(t, <-done)

	// lock released after the first run
	_, err = im.Import(context.Background(), nil, nil)
	assert.NoError(t, err)
}

func TestImportCancelled(t *testing.T) {
	im := New(newMemStore(), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	waiting := content.SourceFunc{SourceName: "feed", Fn: func(ctx context.Context) ([]content.RawContent, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	_, err := im.Import(ctx, []content.Source{waiting}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportLock(t *testing.T) {
	var lock ImportLock
	require.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire())
	lock.Release()
	assert.True(t, lock.TryAcquire())
	lock.Release()

	const goroutines = 100
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
	)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if lock.TryAcquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, acquired)
}
