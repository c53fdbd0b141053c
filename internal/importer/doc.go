// Package importer copies content from file and feed sources into the
// SQLite content store.
//
// # Basic Usage
//
//	im := importer.New(store, logger)
//	stats, err := im.Import(ctx, sources, &importer.Config{Workers: 4})
//
//	fmt.Printf("Imported %d records from %d sources in %v\n",
//	    stats.RecordsImported, stats.SourcesImported, stats.Duration)
//
// # Pipeline
//
// Sources are loaded concurrently, bounded by Config.Workers. Each source's
// records are then upserted in one transaction, one source at a time, so a
// source is either fully imported or not at all. A source that fails to
// load or store is reported in Statistics.ErrorMessages; the others still
// import.
//
// # Concurrency
//
// Only one Import runs per Importer. A second concurrent call returns
// ErrImportInProgress immediately instead of waiting.
package importer
