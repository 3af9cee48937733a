package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMigrations = fstest.MapFS{
	"20260101_000000_create_notes.up.sql":   {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")},
	"20260101_000000_create_notes.down.sql": {Data: []byte("DROP TABLE notes")},
	"20260102_000000_create_tags.up.sql":    {Data: []byte("CREATE TABLE tags (name TEXT PRIMARY KEY)")},
	"README.md":                             {Data: []byte("ignored")},
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, testMigrations))
	assert.True(t, tableExists(t, db, "notes"))
	assert.True(t, tableExists(t, db, "tags"))

	applied, pending, err := db.MigrationStatus(ctx, testMigrations)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
	assert.Empty(t, pending)

	// Idempotent.
	require.NoError(t, db.Migrate(ctx, testMigrations))
}

func TestMigrate_NilFS(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Migrate(context.Background(), nil))
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"20260101_000000_create_notes.up.sql":   testMigrations["20260101_000000_create_notes.up.sql"],
		"20260101_000000_create_notes.down.sql": testMigrations["20260101_000000_create_notes.down.sql"],
	}

	require.NoError(t, db.Migrate(ctx, fsys))
	require.NoError(t, db.MigrateDown(ctx, fsys))
	assert.False(t, tableExists(t, db, "notes"))

	applied, _, err := db.MigrationStatus(ctx, fsys)
	require.NoError(t, err)
	assert.Empty(t, applied)

	// Nothing left to roll back.
	assert.NoError(t, db.MigrateDown(ctx, fsys))
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, testMigrations))
	err := db.MigrateDown(ctx, testMigrations)
	assert.ErrorIs(t, err, ErrNoDownMigration)
}

func TestLoadMigrations_MissingUp(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{
		"20260101_000000_orphan.down.sql": {Data: []byte("DROP TABLE x")},
	})
	assert.Error(t, err)
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOK      bool
	}{
		{"20260118_120000_create_kv.up.sql", "20260118_120000", "create_kv", true, true},
		{"20260118_120000_create_kv.down.sql", "20260118_120000", "create_kv", false, true},
		{"20260118_120000.up.sql", "20260118_120000", "", true, true},
		{"readme.txt", "", "", false, false},
		{"20260118_120000_create_kv.sql", "", "", false, false},
		{"invalid.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantUp, up)
		})
	}
}
