package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"endee-rag/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "meta.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutFlushGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	s.Put(models.Chunk{ID: "a", Text: "alpha", Source: "a.txt", ChunkIndex: 0, TotalChunks: 2})

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "staged rows are not visible before flush")

	require.NoError(t, s.Flush(ctx))

	m, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.ChunkMetadata{Text: "alpha", Source: "a.txt", ChunkIndex: 0, TotalChunks: 2}, m)
}

func TestStore_FlushUpserts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	s.Put(models.Chunk{ID: "a", Text: "old", Source: "a.txt"})
	require.NoError(t, s.Flush(ctx))
	s.Put(models.Chunk{ID: "a", Text: "new", Source: "a.txt", ChunkIndex: 1, TotalChunks: 2},
		models.Chunk{ID: "b", Text: "beta", Source: "b.txt"})
	require.NoError(t, s.Flush(ctx))

	m, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", m.Text)
	assert.Equal(t, 1, m.ChunkIndex)

	n, err := countRows(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Flush(ctx), "empty flush is a no-op")
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	s.Put(models.Chunk{ID: "a", Text: "alpha", Source: "a.txt"})
	require.NoError(t, s.Flush(ctx))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "missing"))

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitDB_AfterDrop(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, dropTable(ctx, s.db))
	require.NoError(t, InitDB(ctx, s.db))

	n, err := countRows(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func dropTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*ChunkRow)(nil)).IfExists().Exec(ctx)
	return err
}

func countRows(ctx context.Context, s *Store) (int, error) {
	return s.db.NewSelect().Model((*ChunkRow)(nil)).Count(ctx)
}
