package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// IndexedDocument is one registry row: a document identity that has been
// fully chunked and upserted into the similarity index.
type IndexedDocument struct {
	ID         string // sha256 hex of the raw bytes
	Filename   string
	Format     string
	FileSize   int
	ChunkCount int
	IndexedAt  time.Time
}

// DocumentRegistry is the behavior the indexer depends on.
type DocumentRegistry interface {
	IsIndexed(ctx context.Context, id string) (bool, error)
	MarkIndexed(ctx context.Context, doc IndexedDocument) error
	Get(ctx context.Context, id string) (*IndexedDocument, error)
	List(ctx context.Context) ([]IndexedDocument, error)
	Delete(ctx context.Context, id string) error
}

type documentRegistry struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDocumentRegistry builds a registry over an open database.
func NewDocumentRegistry(db *sql.DB, logger *slog.Logger) DocumentRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRegistry{db: db, logger: logger}
}

func (r *documentRegistry) IsIndexed(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("registry.is_indexed.failed", "doc_id", id, "error", err)
		return false, err
	}
	return true, nil
}

func (r *documentRegistry) MarkIndexed(ctx context.Context, doc IndexedDocument) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, format, file_size, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			chunk_count = excluded.chunk_count,
			indexed_at = excluded.indexed_at`,
		doc.ID, doc.Filename, doc.Format, doc.FileSize, doc.ChunkCount, doc.IndexedAt)
	if err != nil {
		r.logger.Error("registry.mark_indexed.failed", "doc_id", doc.ID, "error", err)
		return err
	}
	return nil
}

func (r *documentRegistry) Get(ctx context.Context, id string) (*IndexedDocument, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, format, file_size, chunk_count, indexed_at
		FROM documents WHERE id = ?`, id)
	var doc IndexedDocument
	err := row.Scan(&doc.ID, &doc.Filename, &doc.Format, &doc.FileSize, &doc.ChunkCount, &doc.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRegistry) List(ctx context.Context) ([]IndexedDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, format, file_size, chunk_count, indexed_at
		FROM documents ORDER BY indexed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []IndexedDocument
	for rows.Next() {
		var doc IndexedDocument
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Format, &doc.FileSize,
			&doc.ChunkCount, &doc.IndexedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRegistry) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}
