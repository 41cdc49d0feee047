package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	openaief "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"

	"github.com/toladipo/docbrief/constants"
	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/docstore"
	"github.com/toladipo/docbrief/internal/export"
	"github.com/toladipo/docbrief/internal/extract"
	"github.com/toladipo/docbrief/internal/form"
	"github.com/toladipo/docbrief/internal/index"
	"github.com/toladipo/docbrief/internal/ingest"
	"github.com/toladipo/docbrief/internal/llm/openai"
	"github.com/toladipo/docbrief/internal/ratelimit"
	"github.com/toladipo/docbrief/internal/render"
	"github.com/toladipo/docbrief/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		schemaPath = flag.String("schema", "", "template JSON file (required)")
		eventName  = flag.String("event", "", "event name substituted into field prompts")
		outPDF     = flag.String("pdf", "", "output PDF path (default: <schema dir>/brief.pdf)")
		outXLSX    = flag.String("xlsx", "", "output XLSX path (optional)")
		throttle   = flag.Bool("throttle", false, "apply the daemon's rate-limit ceilings")
	)
	flag.Parse()

	if *schemaPath == "" {
		printError("Error: --schema is required\n")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		printError("Error: at least one document file is required\n")
		os.Exit(1)
	}
	if *outPDF == "" {
		*outPDF = filepath.Join(filepath.Dir(*schemaPath), "brief.pdf")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rawSchema, err := os.ReadFile(*schemaPath)
	if err != nil {
		printError("Error: reading schema: %v\n", err)
		os.Exit(1)
	}
	tmpl, err := form.Parse(rawSchema)
	if err != nil {
		printError("Error: parsing schema: %v\n", err)
		os.Exit(1)
	}

	db, err := repository.Open(ctx, cfg.Index.RegistryPath, logger)
	if err != nil {
		logger.Error("failed to open document registry", "error", err)
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

	var docIDs []string
	var jsonContext strings.Builder
	for _, path := range files {
		res, err := ingestor.IngestFile(ctx, path)
		if err != nil {
			printError("Warning: skipping %s: %v\n", path, err)
			continue
		}
		docIDs = append(docIDs, res.DocID)
		if res.Format == constants.JSON {
			if jsonContext.Len() > 0 {
				jsonContext.WriteString("\n\n")
			}
			jsonContext.WriteString(res.Text)
		}
		logger.Info("ingested", "file", path, "doc_id", res.DocID, "chunks", res.Chunks, "skipped", res.Skipped)
	}
	if len(docIDs) == 0 {
		printError("Error: no usable documents\n")
		os.Exit(1)
	}

	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if *throttle {
		limiter = ratelimit.NewBudgetLimiter(
			cfg.Extract.RequestsPerMinute,
			cfg.Extract.TokensPerMinute,
			cfg.Extract.MaxTokensPerRequest,
		)
	}

	orchestrator := extract.NewOrchestrator(retriever, completer, limiter, extract.Config{
		MaxFieldsPerBatch:   cfg.Extract.MaxFieldsPerBatch,
		MaxTokensPerRequest: cfg.Extract.MaxTokensPerRequest,
		RetryAttempts:       cfg.Extract.RetryAttempts,
		RetryBaseDelay:      cfg.Extract.RetryBaseDelay,
		RunTimeout:          cfg.Extract.RunTimeout,
	}, logger)

	result, err := orchestrator.Run(ctx, tmpl, *eventName, docIDs, jsonContext.String())
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
	logger.Info("extraction complete",
		"filled", result.Stats.FieldsFilled,
		"missing", result.Stats.FieldsMissing,
		"requests", result.Stats.Requests,
	)
	for _, m := range result.Missing {
		logger.Warn("missing field", "section", m.Section, "field", m.Field, "reason", m.Reason)
	}

	pdfBytes, err := render.NewRenderer(logger).Render(result.Template, *eventName)
	if err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPDF, pdfBytes, 0o644); err != nil {
		logger.Error("failed to write pdf", "path", *outPDF, "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *outPDF)

	if *outXLSX != "" {
		xlsxBytes, err := export.NewService(logger).ExportXLSX(result.Template, *eventName)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outXLSX, xlsxBytes, 0o644); err != nil {
			logger.Error("failed to write xlsx", "path", *outXLSX, "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *outXLSX)
	}
}
