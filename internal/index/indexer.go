package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/docstore"
	"github.com/toladipo/docbrief/internal/loader"
	"github.com/toladipo/docbrief/internal/repository"
)

// DocumentStore is the slice of the vector store the indexer needs.
type DocumentStore interface {
	Upsert(ctx context.Context, chunks []docstore.Chunk) error
	Forget(ctx context.Context, docID string) error
}

// Document is a sanitized, segmented document ready for indexing.
type Document struct {
	ID       string // sha256 hex of the raw bytes
	Filename string
	Format   string
	FileSize int
	Segments []loader.Segment
}

type IndexerConfig struct {
	Retries   int
	BaseDelay time.Duration
}

// Indexer chunks documents and upserts them into the store, recording
// completed documents in the registry so identical bytes are indexed once.
type Indexer struct {
	store    DocumentStore
	registry repository.DocumentRegistry
	chunker  *Chunker
	cfg      IndexerConfig
	logger   *slog.Logger
}

func NewIndexer(store DocumentStore, registry repository.DocumentRegistry, chunker *Chunker, cfg IndexerConfig, logger *slog.Logger) *Indexer {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, registry: registry, chunker: chunker, cfg: cfg, logger: logger}
}

// Index makes doc retrievable. Already-indexed documents are skipped; the
// registry row is written only after the store accepts every chunk, so a
// failed run leaves the document eligible for a clean retry.
func (ix *Indexer) Index(ctx context.Context, doc Document) (int, error) {
	indexed, err := ix.registry.IsIndexed(ctx, doc.ID)
	if err != nil {
		return 0, common.WrapError(common.ErrInternal, "checking document registry", err)
	}
	if indexed {
		ix.logger.Info("index.skip_duplicate", "doc_id", doc.ID, "filename", doc.Filename)
		return 0, nil
	}

	chunks := ix.chunker.Chunk(doc.ID, doc.Segments)
	if len(chunks) == 0 {
		return 0, common.ErrEmptyDocument
	}

	ix.logger.Info("index.start", "doc_id", doc.ID, "filename", doc.Filename, "chunks", len(chunks))

	if err := ix.upsertWithRetry(ctx, chunks); err != nil {
		// Partial upserts are harmless: ids are deterministic, so the next
		// attempt overwrites whatever landed this time.
		return 0, common.WrapError(common.ErrIndexingFailed, "upserting chunks for "+doc.Filename, err)
	}

	err = ix.registry.MarkIndexed(ctx, repository.IndexedDocument{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Format:     doc.Format,
		FileSize:   doc.FileSize,
		ChunkCount: len(chunks),
		IndexedAt:  time.Now().UTC(),
	})
	if err != nil {
		return 0, common.WrapError(common.ErrInternal, "recording indexed document", err)
	}

	ix.logger.Info("index.done", "doc_id", doc.ID, "chunks", len(chunks))
	return len(chunks), nil
}

// Remove deletes a document's chunks and its registry row.
func (ix *Indexer) Remove(ctx context.Context, docID string) error {
	if err := ix.store.Forget(ctx, docID); err != nil {
		return common.WrapError(common.ErrIndexingFailed, "removing chunks", err)
	}
	return ix.registry.Delete(ctx, docID)
}

func (ix *Indexer) upsertWithRetry(ctx context.Context, chunks []docstore.Chunk) error {
	var lastErr error
	for attempt := 0; attempt < ix.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := ix.cfg.BaseDelay * (1 << (attempt - 1))
			ix.logger.Warn("index.retry", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		lastErr = ix.store.Upsert(ctx, chunks)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
