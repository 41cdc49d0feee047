package repository

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) DocumentRegistry {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "registry.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDocumentRegistry(db, slog.Default())
}

func TestRegistry_MarkAndCheck(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	indexed, err := reg.IsIndexed(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, indexed)

	doc := IndexedDocument{
		ID:         "abc123",
		Filename:   "contract.pdf",
		Format:     "PDF",
		FileSize:   4096,
		ChunkCount: 7,
		IndexedAt:  time.Now().UTC(),
	}
	require.NoError(t, reg.MarkIndexed(ctx, doc))

	indexed, err = reg.IsIndexed(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, indexed)

	got, err := reg.Get(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "contract.pdf", got.Filename)
	assert.Equal(t, 7, got.ChunkCount)
}

func TestRegistry_MarkIndexedIsIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	doc := IndexedDocument{ID: "dup", Filename: "a.docx", Format: "DOCX", FileSize: 10, ChunkCount: 1, IndexedAt: time.Now().UTC()}
	require.NoError(t, reg.MarkIndexed(ctx, doc))

	doc.Filename = "b.docx"
	doc.ChunkCount = 3
	require.NoError(t, reg.MarkIndexed(ctx, doc))

	got, err := reg.Get(ctx, "dup")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b.docx", got.Filename)
	assert.Equal(t, 3, got.ChunkCount)

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRegistry_Delete(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.MarkIndexed(ctx, IndexedDocument{ID: "gone", Filename: "x.pdf", Format: "PDF", IndexedAt: time.Now().UTC()}))
	require.NoError(t, reg.Delete(ctx, "gone"))

	indexed, err := reg.IsIndexed(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, indexed)

	got, err := reg.Get(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, got)
}
