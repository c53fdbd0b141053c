package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/dshills/portfolio-search/internal/cache"
	"github.com/dshills/portfolio-search/internal/config"
	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/internal/logging"
	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/internal/storage"
	"github.com/dshills/portfolio-search/pkg/types"
)

// contentDirs maps each record type to its directory under PORTFOLIO_CONTENT_DIR
var contentDirs = []struct {
	kind types.RecordType
	dir  string
}{
	{types.RecordProject, "projects"},
	{types.RecordWriting, "writing"},
	{types.RecordExperience, "experience"},
	{types.RecordSkill, "skills"},
	{types.RecordProfile, "profile"},
}

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.SQLiteStorage
	cache    *cache.Manager
	searcher *searcher.Searcher
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	if cfg.DBPath != "" {
		store, err := storage.NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open content store: %w", err)
		}
		a.store = store
	}

	a.cache = cache.New(cfg.CacheCapacity,
		cache.WithDefaultTTL(cfg.ContentTTL),
		cache.WithSoftStale(cfg.SoftStale),
		cache.WithLogger(logging.Component(logger, "cache")),
	)

	agg := content.NewAggregator(cfg.AggregatorConfig(), a.sources(),
		content.WithCache(a.cache),
		content.WithLogger(logging.Component(logger, "aggregator")),
	)
	a.searcher = searcher.New(agg, a.cache,
		searcher.WithIndexTTL(cfg.IndexTTL),
		searcher.WithLogger(logging.Component(logger, "searcher")),
	)

	logger.Debug("application initialized",
		"sources", agg.Sources(),
		"cache_capacity", cfg.CacheCapacity,
		"fail_policy", cfg.FailPolicy,
	)
	return a, nil
}

// sources builds every configured content source
func (a *app) sources() []content.Source {
	var out []content.Source
	out = append(out, fileSources(a.cfg.ContentDir)...)

	for _, f := range a.cfg.Feeds {
		opts := []content.FeedOption{content.WithFeatured(a.cfg.Featured...)}
		if f.Platform != "" {
			opts = append(opts, content.WithPlatform(f.Platform))
		}
		out = append(out, content.NewFeedSource(feedName(f), f.URL, opts...))
	}

	if a.store != nil {
		out = append(out, storage.TableSources(a.store)...)
	}
	return out
}

func fileSources(dir string) []content.Source {
	if dir == "" {
		return nil
	}
	fsys := os.DirFS(dir)
	out := make([]content.Source, 0, len(contentDirs))
	for _, d := range contentDirs {
		out = append(out, content.NewFileSource("files/"+d.dir, d.kind, fsys, d.dir))
	}
	return out
}

func feedName(f config.Feed) string {
	if f.Platform != "" {
		return "feed/" + f.Platform
	}
	if u, err := url.Parse(f.URL); err == nil && u.Host != "" {
		return "feed/" + u.Host
	}
	return "feed/" + f.URL
}

func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
