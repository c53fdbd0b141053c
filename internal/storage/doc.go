// Package storage provides SQLite-based persistence for portfolio content.
//
// The store keeps the raw content shapes of package content, one table per
// kind, so rows round-trip through the same normalization as file and feed
// sources.
//
// # Database Schema
//
// Tables:
//   - projects: keyed by slug
//   - writing: keyed by slug
//   - experience: keyed by id (or company and role)
//   - skills: keyed by id (or name)
//   - profile: keyed by name
//   - content_sync: last import per source (schema 1.1.0)
//
// List columns (tags, technologies, highlights) are stored as JSON arrays.
// Migrations are applied in semantic-version order and recorded in
// schema_version.
//
// # Drivers
//
// The default build uses the pure Go modernc.org/sqlite driver. Building with
// the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("portfolio.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	n, err := db.Import(ctx, "projects", items)
//
//	// Feed the tables into the aggregator
//	agg := content.NewAggregator(cfg, storage.TableSources(db))
//
// # Transactions
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.Upsert(ctx, project); err != nil {
//	    return err
//	}
//	return tx.Commit()
package storage
