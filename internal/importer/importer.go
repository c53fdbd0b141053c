package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/portfolio-search/internal/content"
)

// ErrImportInProgress is returned when another import holds the lock
var ErrImportInProgress = errors.New("import already in progress")

// Store persists the records of one source in a single transaction
type Store interface {
	Import(ctx context.Context, source string, items []content.RawContent) (int, error)
}

// Importer coordinates the import pipeline: load -> store
type Importer struct {
	store  Store
	logger *slog.Logger
	lock   ImportLock

	// Serializes writes; SQLite allows one writer at a time
	storeMu sync.Mutex
}

// Config contains configuration for one import run
type Config struct {
	Workers int // Sources loaded concurrently (default: runtime.NumCPU())
}

// Statistics contains statistics about the import operation
type Statistics struct {
	SourcesImported int
	SourcesFailed   int
	RecordsImported int
	PerSource       map[string]int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates a new Importer writing to store
func New(store Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger}
}

// Import loads every source concurrently and writes each one's records in
// its own transaction. A failing source is recorded in the statistics and
// does not stop the others. Only context cancellation aborts the run.
func (im *Importer) Import(ctx context.Context, sources []content.Source, config *Config) (*Statistics, error) {
	if !im.lock.TryAcquire() {
		return nil, ErrImportInProgress
	}
	defer im.lock.Release()

	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	startTime := time.Now()
	stats := &Statistics{
		PerSource:     make(map[string]int, len(sources)),
		ErrorMessages: make([]string, 0),
	}
	var mu sync.Mutex // Protects stats

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, src := range sources {
		g.Go(func() error {
			n, err := im.importSource(gctx, src)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				stats.SourcesFailed++
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", src.Name(), err))
				im.logger.Warn("source import failed", "source", src.Name(), "error", err)
				return nil
			}
			stats.SourcesImported++
			stats.RecordsImported += n
			stats.PerSource[src.Name()] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import cancelled: %w", err)
	}

	sort.Strings(stats.ErrorMessages)
	stats.Duration = time.Since(startTime)
	im.logger.Info("import complete",
		"sources", stats.SourcesImported,
		"failed", stats.SourcesFailed,
		"records", stats.RecordsImported,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return stats, nil
}

// importSource loads one source and stores its records
func (im *Importer) importSource(ctx context.Context, src content.Source) (int, error) {
	items, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	im.storeMu.Lock()
	defer im.storeMu.Unlock()
	n, err := im.store.Import(ctx, src.Name(), items)
	if err != nil {
		return 0, fmt.Errorf("failed to store: %w", err)
	}
	return n, nil
}
