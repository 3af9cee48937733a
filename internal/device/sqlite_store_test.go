package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/onenet-console/internal/infrastructure/database"
	"github.com/nerrad567/onenet-console/migrations"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx, migrations.FS))
	return NewSQLiteStore(db.DB)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Get(ctx, "devices")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, s.Put(ctx, "devices", []byte(`[{"id":"1"}]`)))
	require.NoError(t, s.Put(ctx, "devices", []byte(`[{"id":"2"}]`)))

	got, err := s.Get(ctx, "devices")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(got))

	require.NoError(t, s.Delete(ctx, "devices"))
	require.NoError(t, s.Delete(ctx, "devices"))
	_, err = s.Get(ctx, "devices")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestSQLiteStore_BacksCache(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	c := NewCache(s, "")
	require.NoError(t, c.Merge(ctx, []Device{{ID: "1", Title: "boiler"}}))

	devices, err := NewCache(s, "").Load(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "boiler", devices[0].Title)
}
