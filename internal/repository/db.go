// Package repository persists the document registry: which document
// identities have already been chunked and embedded, so re-ingesting an
// unchanged document is a cheap no-op.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	format      TEXT NOT NULL,
	file_size   INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	indexed_at  TIMESTAMP NOT NULL
);
`

// Open opens (or creates) the registry database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("registry.open", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create registry schema: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping registry db: %w", err)
	}
	return db, nil
}
