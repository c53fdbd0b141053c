package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/internal/importer"
	"github.com/dshills/portfolio-search/internal/logging"
	"github.com/dshills/portfolio-search/internal/storage"
)

var importWorkers int

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy file and feed content into the SQLite store",
	Long: `
Load every file source under PORTFOLIO_CONTENT_DIR and every feed in
PORTFOLIO_FEED_URLS, and upsert the records into PORTFOLIO_DB_PATH.
Sources are loaded concurrently and each is written in its own transaction;
a failing source is reported and the remaining sources are still imported.
`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", 4, "Sources loaded concurrently")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.store == nil {
		return errors.New("PORTFOLIO_DB_PATH is required for import")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var sources []content.Source
	for _, src := range a.sources() {
		if _, ok := src.(*storage.TableSource); !ok {
			sources = append(sources, src)
		}
	}

	im := importer.New(a.store, logging.Component(a.logger, "importer"))
	stats, err := im.Import(ctx, sources, &importer.Config{Workers: importWorkers})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(stats.PerSource))
	for name := range stats.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-24s %d records\n", name, stats.PerSource[name])
	}
	for _, msg := range stats.ErrorMessages {
		fmt.Printf("FAILED %s\n", msg)
	}

	status, err := a.store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read store status: %w", err)
	}
	fmt.Printf("\nStore: %s (schema %s, %s build), %d records, %.2f MB\n",
		a.cfg.DBPath, status.SchemaVersion, status.BuildMode, status.Total(), status.SizeMB)

	if stats.SourcesFailed > 0 {
		return fmt.Errorf("%d of %d sources failed", stats.SourcesFailed, len(sources))
	}
	return nil
}
