package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrMissingKey is returned when a record has no usable key
	ErrMissingKey = errors.New("record has no key")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// tableFor maps a record type to its table and key column
func tableFor(kind types.RecordType) (table, keyColumn string, err error) {
	switch kind {
	case types.RecordProject:
		return "projects", "slug", nil
	case types.RecordWriting:
		return "writing", "slug", nil
	case types.RecordExperience:
		return "experience", "key", nil
	case types.RecordSkill:
		return "skills", "key", nil
	case types.RecordProfile:
		return "profile", "key", nil
	}
	return "", "", fmt.Errorf("unsupported record type %q", kind)
}

// StorageKey returns the unique key a raw record is stored under. It follows
// the same identity rules as content.Normalize.
func StorageKey(item content.RawContent) (string, error) {
	var key string
	switch c := item.(type) {
	case *content.Project:
		key = firstNonEmpty(c.Slug, content.Slugify(c.Title))
	case *content.Writing:
		key = firstNonEmpty(c.Slug, content.Slugify(c.Title))
	case *content.Experience:
		key = firstNonEmpty(c.ID, content.Slugify(c.Company+" "+c.Role))
	case *content.Skill:
		key = firstNonEmpty(c.ID, content.Slugify(c.Name))
	case *content.Profile:
		key = firstNonEmpty(content.Slugify(c.Name), "profile")
	default:
		return "", fmt.Errorf("unsupported content %T", item)
	}
	if key == "" {
		return "", ErrMissingKey
	}
	return key, nil
}

// Content operations

// upsertWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertWithQuerier(ctx context.Context, q querier, item content.RawContent) error {
	key, err := StorageKey(item)
	if err != nil {
		return err
	}
	now := time.Now()

	switch c := item.(type) {
	case *content.Project:
		_, err = q.ExecContext(ctx, `
			INSERT INTO projects (slug, title, summary, description, category, tags, technologies,
			                      client, role, status, featured, url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(slug) DO UPDATE SET
				title = excluded.title,
				summary = excluded.summary,
				description = excluded.description,
				category = excluded.category,
				tags = excluded.tags,
				technologies = excluded.technologies,
				client = excluded.client,
				role = excluded.role,
				status = excluded.status,
				featured = excluded.featured,
				url = excluded.url,
				updated_at = excluded.updated_at
		`, key, c.Title, c.Summary, c.Description, c.Category, encodeJSON(c.Tags), encodeJSON(c.Technologies),
			c.Client, c.Role, c.Status, c.Featured, c.URL, now, now)
	case *content.Writing:
		_, err = q.ExecContext(ctx, `
			INSERT INTO writing (slug, title, excerpt, body, category, tags, published_date,
			                     read_time, platform, featured, url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(slug) DO UPDATE SET
				title = excluded.title,
				excerpt = excluded.excerpt,
				body = excluded.body,
				category = excluded.category,
				tags = excluded.tags,
				published_date = excluded.published_date,
				read_time = excluded.read_time,
				platform = excluded.platform,
				featured = excluded.featured,
				url = excluded.url,
				updated_at = excluded.updated_at
		`, key, c.Title, c.Excerpt, c.Body, c.Category, encodeJSON(c.Tags), c.PublishedDate,
			c.ReadTime, c.Platform, c.Featured, c.URL, now, now)
	case *content.Experience:
		_, err = q.ExecContext(ctx, `
			INSERT INTO experience (key, company, role, summary, highlights, start_date, end_date,
			                        location, technologies, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				company = excluded.company,
				role = excluded.role,
				summary = excluded.summary,
				highlights = excluded.highlights,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				location = excluded.location,
				technologies = excluded.technologies,
				updated_at = excluded.updated_at
		`, key, c.Company, c.Role, c.Summary, encodeJSON(c.Highlights), c.StartDate, c.EndDate,
			c.Location, encodeJSON(c.Technologies), now, now)
	case *content.Skill:
		_, err = q.ExecContext(ctx, `
			INSERT INTO skills (key, name, category, level, keywords, tools, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				level = excluded.level,
				keywords = excluded.keywords,
				tools = excluded.tools,
				updated_at = excluded.updated_at
		`, key, c.Name, c.Category, c.Level, encodeJSON(c.Keywords), encodeJSON(c.Tools), now, now)
	case *content.Profile:
		_, err = q.ExecContext(ctx, `
			INSERT INTO profile (key, name, headline, bio, location, specialties, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				name = excluded.name,
				headline = excluded.headline,
				bio = excluded.bio,
				location = excluded.location,
				specialties = excluded.specialties,
				updated_at = excluded.updated_at
		`, key, c.Name, c.Headline, c.Bio, c.Location, encodeJSON(c.Specialties), now, now)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", item.Kind(), key, err)
	}
	return nil
}

func (s *SQLiteStorage) Upsert(ctx context.Context, item content.RawContent) error {
	return s.upsertWithQuerier(ctx, s.querier(), item)
}

// listWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listWithQuerier(ctx context.Context, q querier, kind types.RecordType) ([]content.RawContent, error) {
	var query string
	switch kind {
	case types.RecordProject:
		query = `SELECT slug, title, summary, description, category, tags, technologies,
		                client, role, status, featured, url
		         FROM projects ORDER BY id`
	case types.RecordWriting:
		query = `SELECT slug, title, excerpt, body, category, tags, published_date,
		                read_time, platform, featured, url
		         FROM writing ORDER BY id`
	case types.RecordExperience:
		query = `SELECT key, company, role, summary, highlights, start_date, end_date,
		                location, technologies
		         FROM experience ORDER BY id`
	case types.RecordSkill:
		query = `SELECT key, name, category, level, keywords, tools FROM skills ORDER BY id`
	case types.RecordProfile:
		query = `SELECT name, headline, bio, location, specialties FROM profile ORDER BY id`
	default:
		return nil, fmt.Errorf("unsupported record type %q", kind)
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []content.RawContent
	for rows.Next() {
		item, err := scanRow(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) List(ctx context.Context, kind types.RecordType) ([]content.RawContent, error) {
	return s.listWithQuerier(ctx, s.querier(), kind)
}

func scanRow(rows *sql.Rows, kind types.RecordType) (content.RawContent, error) {
	var err error
	switch kind {
	case types.RecordProject:
		var p content.Project
		var tags, techs string
		if err = rows.Scan(&p.Slug, &p.Title, &p.Summary, &p.Description, &p.Category, &tags, &techs,
			&p.Client, &p.Role, &p.Status, &p.Featured, &p.URL); err != nil {
			return nil, err
		}
		if err = decodeJSON(tags, &p.Tags); err != nil {
			return nil, err
		}
		if err = decodeJSON(techs, &p.Technologies); err != nil {
			return nil, err
		}
		return &p, nil
	case types.RecordWriting:
		var w content.Writing
		var tags string
		if err = rows.Scan(&w.Slug, &w.Title, &w.Excerpt, &w.Body, &w.Category, &tags, &w.PublishedDate,
			&w.ReadTime, &w.Platform, &w.Featured, &w.URL); err != nil {
			return nil, err
		}
		if err = decodeJSON(tags, &w.Tags); err != nil {
			return nil, err
		}
		return &w, nil
	case types.RecordExperience:
		var e content.Experience
		var highlights, techs string
		if err = rows.Scan(&e.ID, &e.Company, &e.Role, &e.Summary, &highlights, &e.StartDate, &e.EndDate,
			&e.Location, &techs); err != nil {
			return nil, err
		}
		if err = decodeJSON(highlights, &e.Highlights); err != nil {
			return nil, err
		}
		if err = decodeJSON(techs, &e.Technologies); err != nil {
			return nil, err
		}
		return &e, nil
	case types.RecordSkill:
		var sk content.Skill
		var keywords, tools string
		if err = rows.Scan(&sk.ID, &sk.Name, &sk.Category, &sk.Level, &keywords, &tools); err != nil {
			return nil, err
		}
		if err = decodeJSON(keywords, &sk.Keywords); err != nil {
			return nil, err
		}
		if err = decodeJSON(tools, &sk.Tools); err != nil {
			return nil, err
		}
		return &sk, nil
	case types.RecordProfile:
		var p content.Profile
		var specialties string
		if err = rows.Scan(&p.Name, &p.Headline, &p.Bio, &p.Location, &specialties); err != nil {
			return nil, err
		}
		if err = decodeJSON(specialties, &p.Specialties); err != nil {
			return nil, err
		}
		return &p, nil
	}
	return nil, fmt.Errorf("unsupported record type %q", kind)
}

// deleteWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteWithQuerier(ctx context.Context, q querier, kind types.RecordType, key string) error {
	table, keyColumn, err := tableFor(kind)
	if err != nil {
		return err
	}
	result, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyColumn), key)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, kind types.RecordType, key string) error {
	return s.deleteWithQuerier(ctx, s.querier(), kind, key)
}

// Sync bookkeeping

func (s *SQLiteStorage) recordSyncWithQuerier(ctx context.Context, q querier, source string, records int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO content_sync (source, records, synced_at) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET records = excluded.records, synced_at = excluded.synced_at
	`, source, records, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record sync for %s: %w", source, err)
	}
	return nil
}

func (s *SQLiteStorage) RecordSync(ctx context.Context, source string, records int) error {
	return s.recordSyncWithQuerier(ctx, s.querier(), source, records)
}

// Import upserts items from source in one transaction and records the sync
func (s *SQLiteStorage) Import(ctx context.Context, source string, items []content.RawContent) (int, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n := 0
	for _, item := range items {
		if err := tx.Upsert(ctx, item); err != nil {
			if errors.Is(err, ErrMissingKey) {
				continue
			}
			return 0, err
		}
		n++
	}
	if err := tx.RecordSync(ctx, source, n); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return n, nil
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	current, err := currentVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}

	status := &Status{
		SchemaVersion: current.String(),
		BuildMode:     BuildMode,
		Counts:        make(map[types.RecordType]int),
	}

	for _, kind := range types.AllRecordTypes() {
		table, _, err := tableFor(kind)
		if err != nil {
			return nil, err
		}
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		status.Counts[kind] = n
	}

	rows, err := s.db.QueryContext(ctx, "SELECT source, records, synced_at FROM content_sync ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to read content_sync: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec SyncRecord
		if err := rows.Scan(&rec.Source, &rec.Records, &rec.SyncedAt); err != nil {
			return nil, err
		}
		status.Syncs = append(status.Syncs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return status, nil
}

// Transaction implementations delegate to the querier-based helpers

func (t *sqliteTx) Upsert(ctx context.Context, item content.RawContent) error {
	return t.storage.upsertWithQuerier(ctx, t.querier(), item)
}

func (t *sqliteTx) List(ctx context.Context, kind types.RecordType) ([]content.RawContent, error) {
	return t.storage.listWithQuerier(ctx, t.querier(), kind)
}

func (t *sqliteTx) Delete(ctx context.Context, kind types.RecordType, key string) error {
	return t.storage.deleteWithQuerier(ctx, t.querier(), kind, key)
}

func (t *sqliteTx) RecordSync(ctx context.Context, source string, records int) error {
	return t.storage.recordSyncWithQuerier(ctx, t.querier(), source, records)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	// The pool holds one connection, which the transaction owns
	return nil, errors.New("status is not available inside a transaction")
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}

func encodeJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
