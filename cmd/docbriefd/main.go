package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openaief "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"

	"github.com/toladipo/docbrief/internal/async"
	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/docstore"
	"github.com/toladipo/docbrief/internal/export"
	"github.com/toladipo/docbrief/internal/extract"
	"github.com/toladipo/docbrief/internal/index"
	"github.com/toladipo/docbrief/internal/ingest"
	"github.com/toladipo/docbrief/internal/llm/openai"
	"github.com/toladipo/docbrief/internal/ratelimit"
	"github.com/toladipo/docbrief/internal/render"
	"github.com/toladipo/docbrief/internal/repository"
	"github.com/toladipo/docbrief/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Index.RegistryPath, logger)
	if err != nil {
		logger.Error("failed to open document registry", "path", cfg.Index.RegistryPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	registry := repository.NewDocumentRegistry(db, logger)

	ef, err := openaief.NewOpenAIEmbeddingFunction(
		cfg.LLM.APIKey,
		openaief.WithModel(openaief.EmbeddingModel(cfg.Index.EmbeddingModel)))
	if err != nil {
		logger.Error("failed to create embedding function", "error", err)
		os.Exit(1)
	}

	store, err := docstore.NewChromaStore(ctx, docstore.ChromaStoreConfig{
		BaseURL:       cfg.Index.ChromaURL,
		Collection:    cfg.Index.Collection,
		EmbeddingFunc: ef,
	})
	if err != nil {
		logger.Error("failed to connect to chroma", "url", cfg.Index.ChromaURL, "error", err)
		os.Exit(1)
	}

	chunker := index.NewChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	indexer := index.NewIndexer(store, registry, chunker, index.IndexerConfig{
		Retries: cfg.Ingest.EmbedRetries,
	}, logger)
	retriever := index.NewRetriever(store, cfg.Index.TopK, logger)
	ingestor := ingest.NewService(indexer, logger)

	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	limiter := ratelimit.NewBudgetLimiter(
		cfg.Extract.RequestsPerMinute,
		cfg.Extract.TokensPerMinute,
		cfg.Extract.MaxTokensPerRequest,
	)
	orchestrator := extract.NewOrchestrator(retriever, completer, limiter, extract.Config{
		MaxFieldsPerBatch:   cfg.Extract.MaxFieldsPerBatch,
		MaxTokensPerRequest: cfg.Extract.MaxTokensPerRequest,
		RetryAttempts:       cfg.Extract.RetryAttempts,
		RetryBaseDelay:      cfg.Extract.RetryBaseDelay,
		RunTimeout:          cfg.Extract.RunTimeout,
	}, logger)

	renderer := render.NewRenderer(logger)
	exporter := export.NewService(logger)

	// Optional drop-dir ingestion: watched files flow through the same
	// pipeline as uploads, off a bounded worker queue.
	var queue *async.IngestQueue
	if cfg.Ingest.WatchDir != "" {
		queue = async.NewIngestQueue(ingestor, logger,
			async.WithWorkers(cfg.Ingest.Workers),
			async.WithQueueSize(cfg.Ingest.QueueSize),
		)
		events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Ingest.WatchDir},
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dir", cfg.Ingest.WatchDir, "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range events {
				_ = queue.Enqueue(ctx, async.Job{Path: path, SubmittedAt: time.Now()})
			}
		}()
		go func() {
			for err := range watchErrs {
				logger.Error("watch error", "error", err)
			}
		}()
		logger.Info("watching drop directory", "dir", cfg.Ingest.WatchDir)
	}

	srv := server.New(server.Config{
		Addr:        cfg.Server.HTTPAddr,
		MaxUploadMB: cfg.Ingest.MaxUploadMB,
	}, ingestor, orchestrator, renderer, exporter, registry, logger)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	logger.Info("stopped")
}
