package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	assert.NotNil(t, storage.db)

	status, err := storage.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, status.SchemaVersion)
	assert.Equal(t, BuildMode, status.BuildMode)
	assert.Zero(t, status.Total())
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var n int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, len(AllMigrations), n)
}

func TestRollbackMigration(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, RollbackMigration(ctx, storage.db))
	v, err := currentVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.String())

	// Re-applying brings the schema back to current
	require.NoError(t, ApplyMigrations(ctx, storage.db))
	v, err = currentVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v.String())
}

func TestSortedMigrations(t *testing.T) {
	orig := AllMigrations
	defer func() { AllMigrations = orig }()

	AllMigrations = []Migration{{Version: "1.10.0"}, {Version: "1.2.0"}, {Version: "1.0.0"}}
	migrations, _, err := sortedMigrations()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", migrations[0].Version)
	assert.Equal(t, "1.2.0", migrations[1].Version)
	assert.Equal(t, "1.10.0", migrations[2].Version)

	AllMigrations = []Migration{{Version: "not-a-version"}}
	_, _, err = sortedMigrations()
	assert.Error(t, err)
}

func TestUpsertAndList(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	items := []content.RawContent{
		&content.Project{
			Title:        "Payment Gateway",
			Summary:      "Card processing.",
			Tags:         []string{"payments"},
			Technologies: []types.Technology{{Name: "Go", Category: "language"}},
			Client:       "Acme",
			Featured:     true,
		},
		&content.Writing{Slug: "payments", Title: "Building Scalable Payment Systems", Platform: "Medium", Featured: true},
		&content.Experience{Company: "Globex", Role: "Staff Engineer", Highlights: []string{"Cut costs"}},
		&content.Skill{Name: "Kubernetes", Category: "Infrastructure", Tools: []string{"Helm"}},
		&content.Profile{Name: "Jane Doe", Specialties: []string{"Go"}},
	}
	for _, item := range items {
		require.NoError(t, storage.Upsert(ctx, item))
	}

	projects, err := storage.List(ctx, types.RecordProject)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0].(*content.Project)
	assert.Equal(t, "payment-gateway", p.Slug)
	assert.Equal(t, []string{"payments"}, p.Tags)
	assert.Equal(t, []types.Technology{{Name: "Go", Category: "language"}}, p.Technologies)
	assert.True(t, p.Featured)

	writing, err := storage.List(ctx, types.RecordWriting)
	require.NoError(t, err)
	require.Len(t, writing, 1)
	assert.Equal(t, "Medium", writing[0].(*content.Writing).Platform)
	assert.Empty(t, writing[0].(*content.Writing).Tags)

	exp, err := storage.List(ctx, types.RecordExperience)
	require.NoError(t, err)
	require.Len(t, exp, 1)
	assert.Equal(t, "globex-staff-engineer", exp[0].(*content.Experience).ID)

	status, err := storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, status.Total())
	assert.Equal(t, 1, status.Counts[types.RecordSkill])
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, &content.Project{Slug: "a", Title: "First"}))
	require.NoError(t, storage.Upsert(ctx, &content.Project{Slug: "b", Title: "Second"}))
	require.NoError(t, storage.Upsert(ctx, &content.Project{Slug: "a", Title: "First Renamed"}))

	projects, err := storage.List(ctx, types.RecordProject)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "First Renamed", projects[0].(*content.Project).Title)
	assert.Equal(t, "Second", projects[1].(*content.Project).Title)
}

func TestUpsertMissingKey(t *testing.T) {
	storage := setupTestDB(t)
	err := storage.Upsert(context.Background(), &content.Project{})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestDelete(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, &content.Skill{ID: "go", Name: "Go"}))
	require.NoError(t, storage.Delete(ctx, types.RecordSkill, "go"))
	assert.ErrorIs(t, storage.Delete(ctx, types.RecordSkill, "go"), ErrNotFound)

	skills, err := storage.List(ctx, types.RecordSkill)
	require.NoError(t, err)
	assert.Empty(t, skills)
}

func TestImport(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	n, err := storage.Import(ctx, "projects", []content.RawContent{
		&content.Project{Slug: "a", Title: "A"},
		&content.Project{},
		&content.Project{Slug: "b", Title: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	status, err := storage.GetStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status.Syncs, 1)
	assert.Equal(t, "projects", status.Syncs[0].Source)
	assert.Equal(t, 2, status.Syncs[0].Records)
	assert.False(t, status.Syncs[0].SyncedAt.IsZero())
}

func TestTransactionRollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Upsert(ctx, &content.Project{Slug: "a", Title: "A"}))

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)

	require.NoError(t, tx.Rollback())

	projects, err := storage.List(ctx, types.RecordProject)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestTableSources(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, &content.Writing{Slug: "payments", Title: "Payments"}))
	require.NoError(t, storage.Upsert(ctx, &content.Project{Slug: "payments", Title: "Payments"}))

	sources := TableSources(storage)
	require.Len(t, sources, len(types.AllRecordTypes()))
	assert.Equal(t, "projects", sources[0].Name())

	agg := content.NewAggregator(content.DefaultConfig(), sources)
	out, err := agg.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Equal(t, types.RecordProject, out.Records[0].Type)
	assert.Equal(t, types.RecordWriting, out.Records[1].Type)
	assert.Equal(t, "/writing/payments", out.Records[1].URL)
}
