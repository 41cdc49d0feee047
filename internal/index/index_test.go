package index

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/docstore"
	"github.com/toladipo/docbrief/internal/loader"
	"github.com/toladipo/docbrief/internal/repository"
)

type fakeStore struct {
	upserted    []docstore.Chunk
	upsertCalls int
	failFirst   int
	queryResult []docstore.SearchResult
	forgotten   []string
}

func (f *fakeStore) Upsert(_ context.Context, chunks []docstore.Chunk) error {
	f.upsertCalls++
	if f.upsertCalls <= f.failFirst {
		return errors.New("store unavailable")
	}
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeStore) Query(_ context.Context, _ string, k int) ([]docstore.SearchResult, error) {
	if k < len(f.queryResult) {
		return f.queryResult[:k], nil
	}
	return f.queryResult, nil
}

func (f *fakeStore) Forget(_ context.Context, docID string) error {
	f.forgotten = append(f.forgotten, docID)
	return nil
}

func newTestRegistry(t *testing.T) repository.DocumentRegistry {
	t.Helper()
	db, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "registry.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewDocumentRegistry(db, slog.Default())
}

func TestChunker_WindowsWithOverlap(t *testing.T) {
	c := NewChunker(10, 4)
	segments := []loader.Segment{{Ordinal: 1, Text: strings.Repeat("a", 25), Hint: "page:1"}}

	chunks := c.Chunk("doc1", segments)

	require.Len(t, chunks, 4)
	assert.Equal(t, "doc1:1:0", chunks[0].ID)
	assert.Equal(t, "doc1:1:6", chunks[1].ID)
	assert.Equal(t, "doc1:1:12", chunks[2].ID)
	assert.Equal(t, "doc1:1:18", chunks[3].ID)
	assert.Len(t, chunks[0].Text, 10)
	assert.Len(t, chunks[3].Text, 7)
	for _, ch := range chunks {
		assert.Equal(t, "page:1", ch.Hint)
		assert.Equal(t, "doc1", ch.DocID)
	}
}

func TestChunker_DeterministicIDs(t *testing.T) {
	c := NewChunker(10, 2)
	segments := []loader.Segment{{Ordinal: 1, Text: strings.Repeat("x", 30)}}

	first := c.Chunk("same", segments)
	second := c.Chunk("same", segments)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestChunker_NeverStraddlesSegments(t *testing.T) {
	c := NewChunker(100, 20)
	segments := []loader.Segment{
		{Ordinal: 1, Text: "short page one", Hint: "page:1"},
		{Ordinal: 2, Text: "short page two", Hint: "page:2"},
	}

	chunks := c.Chunk("doc", segments)

	require.Len(t, chunks, 2)
	assert.Equal(t, "short page one", chunks[0].Text)
	assert.Equal(t, "short page two", chunks[1].Text)
}

func TestIndexer_SkipsAlreadyIndexed(t *testing.T) {
	store := &fakeStore{}
	reg := newTestRegistry(t)
	ix := NewIndexer(store, reg, NewChunker(100, 0), IndexerConfig{}, slog.Default())

	doc := Document{
		ID:       "deadbeef",
		Filename: "a.pdf",
		Format:   "PDF",
		FileSize: 100,
		Segments: []loader.Segment{{Ordinal: 1, Text: "hello world"}},
	}

	n, err := ix.Index(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.upsertCalls)

	n, err = ix.Index(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, store.upsertCalls, "duplicate must not reach the store")
}

func TestIndexer_RetriesThenSucceeds(t *testing.T) {
	store := &fakeStore{failFirst: 2}
	reg := newTestRegistry(t)
	ix := NewIndexer(store, reg, NewChunker(100, 0), IndexerConfig{Retries: 3, BaseDelay: time.Millisecond}, slog.Default())

	doc := Document{ID: "retry", Filename: "b.docx", Format: "DOCX", Segments: []loader.Segment{{Ordinal: 1, Text: "content"}}}

	n, err := ix.Index(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, store.upsertCalls)

	indexed, err := reg.IsIndexed(context.Background(), "retry")
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestIndexer_ExhaustedRetriesLeaveRegistryClean(t *testing.T) {
	store := &fakeStore{failFirst: 10}
	reg := newTestRegistry(t)
	ix := NewIndexer(store, reg, NewChunker(100, 0), IndexerConfig{Retries: 2, BaseDelay: time.Millisecond}, slog.Default())

	doc := Document{ID: "broken", Filename: "c.pptx", Format: "PPTX", Segments: []loader.Segment{{Ordinal: 1, Text: "slide"}}}

	_, err := ix.Index(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrIndexingFailed)

	indexed, err := reg.IsIndexed(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, indexed, "failed document must stay eligible for retry")
}

func TestIndexer_EmptySegments(t *testing.T) {
	store := &fakeStore{}
	reg := newTestRegistry(t)
	ix := NewIndexer(store, reg, NewChunker(100, 0), IndexerConfig{}, slog.Default())

	_, err := ix.Index(context.Background(), Document{ID: "empty", Filename: "e.pdf", Format: "PDF"})
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
}

func TestRetriever_FiltersByDocument(t *testing.T) {
	store := &fakeStore{queryResult: []docstore.SearchResult{
		{Text: "alpha", DocID: "d1", Hint: "page:1", Score: 0.1},
		{Text: "beta", DocID: "d2", Hint: "page:3", Score: 0.2},
		{Text: "gamma", DocID: "d1", Hint: "page:2", Score: 0.3},
	}}
	r := NewRetriever(store, 6, slog.Default())

	results, err := r.Retrieve(context.Background(), "query", []string{"d1"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Text)
	assert.Equal(t, "gamma", results[1].Text)
}

func TestRetriever_EmptyIndex(t *testing.T) {
	store := &fakeStore{}
	r := NewRetriever(store, 6, slog.Default())

	results, err := r.Retrieve(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "", ContextBlock(results))
}

func TestContextBlock(t *testing.T) {
	block := ContextBlock([]docstore.SearchResult{
		{Text: "first chunk", Hint: "page:1"},
		{Text: "second chunk", Hint: "slide:2"},
	})
	assert.Equal(t, "[page:1] first chunk\n\n[slide:2] second chunk", block)
}
