// Package server exposes the auto-fill pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/toladipo/docbrief/internal/extract"
	"github.com/toladipo/docbrief/internal/form"
	"github.com/toladipo/docbrief/internal/ingest"
	"github.com/toladipo/docbrief/internal/repository"
)

// Filler runs one auto-fill pass over a parsed template.
type Filler interface {
	Run(ctx context.Context, tmpl *form.Template, eventName string, docIDs []string, jsonContext string) (*extract.Result, error)
}

// Ingestor accepts uploaded document bytes.
type Ingestor interface {
	IngestBytes(ctx context.Context, filename string, data []byte) (*ingest.Result, error)
}

// Renderer produces the PDF brief for a filled template.
type Renderer interface {
	Render(tmpl *form.Template, eventName string) ([]byte, error)
}

// Exporter produces the XLSX workbook for a filled template.
type Exporter interface {
	ExportXLSX(tmpl *form.Template, eventName string) ([]byte, error)
}

type Config struct {
	Addr        string
	MaxUploadMB int
}

type Server struct {
	cfg      Config
	ingestor Ingestor
	filler   Filler
	renderer Renderer
	exporter Exporter
	registry repository.DocumentRegistry
	logger   *slog.Logger

	httpServer *http.Server
}

func New(cfg Config, ingestor Ingestor, filler Filler, renderer Renderer, exporter Exporter, registry repository.DocumentRegistry, logger *slog.Logger) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		ingestor: ingestor,
		filler:   filler,
		renderer: renderer,
		exporter: exporter,
		registry: registry,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           withRequestID(logger, s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auto-fill", s.handleAutoFill)
	mux.HandleFunc("POST /generate-pdf", s.handleGeneratePDF)
	mux.HandleFunc("POST /export-xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http.listen", "addr", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http.shutdown")
	return s.httpServer.Shutdown(ctx)
}
