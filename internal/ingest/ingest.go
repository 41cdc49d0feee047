// Package ingest turns raw uploads and dropped files into indexed,
// retrievable documents.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/toladipo/docbrief/constants"
	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/index"
	"github.com/toladipo/docbrief/internal/loader"
	"github.com/toladipo/docbrief/internal/sanitize"
)

// Result describes one ingested document.
type Result struct {
	DocID    string
	Filename string
	Format   constants.Format
	Chunks   int
	Skipped  bool   // identical bytes were already indexed
	Text     string // sanitized full text, used for JSON full-context runs
}

type Service struct {
	indexer *index.Indexer
	logger  *slog.Logger
}

func NewService(indexer *index.Indexer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{indexer: indexer, logger: logger}
}

// IngestBytes loads, sanitizes, and indexes one document. The document id
// is the sha256 of the raw bytes, so the same content under a different
// filename is recognized and skipped.
func (s *Service) IngestBytes(ctx context.Context, filename string, data []byte) (*Result, error) {
	sum := sha256.Sum256(data)
	docID := hex.EncodeToString(sum[:])

	loaded, err := loader.Load(data, filename)
	if err != nil {
		s.logger.Warn("ingest.load_failed", "filename", filename, "error", err)
		return nil, err
	}
	// The extension is only a hint; content sniffing wins. A mismatch is
	// worth a log line, nothing more.
	if hinted := constants.MapExtToFormat(filepath.Ext(filename)); hinted != constants.UNKNOWN && hinted != loaded.Format {
		s.logger.Warn("ingest.extension_mismatch",
			"filename", filename, "extension_format", hinted, "sniffed_format", loaded.Format)
	}

	segments := make([]loader.Segment, 0, len(loaded.Segments))
	var text strings.Builder
	for _, seg := range loaded.Segments {
		clean := sanitize.Sanitize(seg.Text)
		if clean == "" {
			continue
		}
		seg.Text = clean
		segments = append(segments, seg)
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(clean)
	}
	if len(segments) == 0 {
		return nil, common.ErrEmptyDocument
	}

	chunks, err := s.indexer.Index(ctx, index.Document{
		ID:       docID,
		Filename: filename,
		Format:   string(loaded.Format),
		FileSize: len(data),
		Segments: segments,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		DocID:    docID,
		Filename: filename,
		Format:   loaded.Format,
		Chunks:   chunks,
		Skipped:  chunks == 0,
		Text:     text.String(),
	}
	s.logger.Info("ingest.done",
		"doc_id", docID,
		"filename", filename,
		"format", loaded.Format,
		"chunks", chunks,
		"skipped", res.Skipped,
	)
	return res, nil
}

// IngestFile reads a file from disk and ingests it. Used by the drop-dir
// watcher path.
func (s *Service) IngestFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(common.ErrInvalidInput, "reading "+path, err)
	}
	return s.IngestBytes(ctx, filepath.Base(path), data)
}
