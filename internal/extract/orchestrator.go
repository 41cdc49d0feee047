package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/docstore"
	"github.com/toladipo/docbrief/internal/form"
	"github.com/toladipo/docbrief/internal/index"
	"github.com/toladipo/docbrief/internal/llm"
	"github.com/toladipo/docbrief/internal/ratelimit"
)

// Retriever is the query half of the index seen from the orchestrator.
type Retriever interface {
	Retrieve(ctx context.Context, query string, docIDs []string) ([]docstore.SearchResult, error)
}

// Reasons attached to missing-field entries.
const (
	ReasonNotFound  = "not_found"
	ReasonRetrieval = "retrieval"
	ReasonLLM       = "llm"
	ReasonSchema    = "schema"
	ReasonRateLimit = "rate_limit"
)

// MissingField names a field the run could not fill and why.
type MissingField struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

// Stats summarizes one run.
type Stats struct {
	Sections      int   `json:"sections"`
	Batches       int   `json:"batches"`
	Requests      int   `json:"llm_requests"`
	Retries       int   `json:"llm_retries"`
	FieldsTotal   int   `json:"fields_total"`
	FieldsFilled  int   `json:"fields_filled"`
	FieldsMissing int   `json:"fields_missing"`
	ElapsedMS     int64 `json:"elapsed_ms"`
}

// Result is a best-effort filled template: every field is either assigned
// or listed in Missing, never silently dropped.
type Result struct {
	Template *form.Template
	Missing  []MissingField
	Stats    Stats
}

type Config struct {
	MaxFieldsPerBatch   int
	MaxTokensPerRequest int
	RetryAttempts       int
	RetryBaseDelay      time.Duration
	RunTimeout          time.Duration
}

// Orchestrator drives one auto-fill run: per section, partition the fields
// into batches, retrieve context once per batch, and ask the model for the
// batch's answers under the rate budget.
type Orchestrator struct {
	retriever Retriever
	completer llm.Completer
	limiter   ratelimit.Limiter
	cfg       Config
	logger    *slog.Logger
}

func NewOrchestrator(retriever Retriever, completer llm.Completer, limiter ratelimit.Limiter, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{retriever: retriever, completer: completer, limiter: limiter, cfg: cfg, logger: logger}
}

// Run fills tmpl in place and reports what could not be filled. A batch
// failure never aborts the run: its fields are recorded as missing and the
// next batch proceeds. jsonContext, when non-empty, replaces retrieval for
// every batch (the flattened text of an uploaded JSON document).
func (o *Orchestrator) Run(ctx context.Context, tmpl *form.Template, eventName string, docIDs []string, jsonContext string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	res := &Result{Template: tmpl}
	res.Stats.Sections = len(tmpl.Sections)

	o.logger.Info("extract.run.start",
		"template", tmpl.TemplateName,
		"event", eventName,
		"sections", len(tmpl.Sections),
		"docs", len(docIDs),
		"full_context", jsonContext != "",
	)

	for si := range tmpl.Sections {
		flat := tmpl.FlattenSection(si, eventName)
		res.Stats.FieldsTotal += len(flat)
		batches := Partition(flat, o.cfg.MaxFieldsPerBatch, o.cfg.MaxTokensPerRequest)
		res.Stats.Batches += len(batches)

		for bi, batch := range batches {
			sectionName := tmpl.Sections[si].SectionName
			o.processBatch(ctx, res, tmpl, sectionName, batch, docIDs, jsonContext)
			o.logger.Debug("extract.batch.done",
				"section", sectionName, "batch", bi, "fields", len(batch.Fields))
		}
	}

	res.Stats.FieldsMissing = len(res.Missing)
	res.Stats.ElapsedMS = time.Since(start).Milliseconds()

	o.logger.Info("extract.run.done",
		"template", tmpl.TemplateName,
		"filled", res.Stats.FieldsFilled,
		"missing", res.Stats.FieldsMissing,
		"requests", res.Stats.Requests,
		"elapsed_ms", res.Stats.ElapsedMS,
	)
	return res, nil
}

func (o *Orchestrator) processBatch(ctx context.Context, res *Result, tmpl *form.Template, sectionName string, batch Batch, docIDs []string, jsonContext string) {
	contextBlock := jsonContext
	if contextBlock == "" {
		results, err := o.retriever.Retrieve(ctx, batchQuery(batch), docIDs)
		if err != nil {
			o.logger.Error("extract.retrieve.failed", "section", sectionName, "error", err)
			o.markBatchMissing(res, sectionName, batch, ReasonRetrieval)
			return
		}
		contextBlock = index.ContextBlock(results)
	}

	req := llm.Request{
		System: llm.BuildSystemPrompt(),
		User:   llm.BuildUserPrompt(contextBlock, batch.Fields),
		Schema: llm.BuildBatchJSONSchema(batch.Fields),
	}
	tokens := EstimateTokens(req.System + req.User)

	if err := o.limiter.Acquire(ctx, tokens); err != nil {
		o.logger.Warn("extract.rate_limited", "section", sectionName, "error", err)
		o.markBatchMissing(res, sectionName, batch, ReasonRateLimit)
		return
	}

	answer, err := o.completeWithRetry(ctx, res, req)
	if err != nil {
		o.markBatchMissing(res, sectionName, batch, classifyReason(err))
		return
	}

	values, err := llm.DecodeObject(answer)
	if err != nil {
		o.logger.Error("extract.decode.failed", "section", sectionName, "error", err)
		o.markBatchMissing(res, sectionName, batch, ReasonSchema)
		return
	}

	for _, f := range batch.Fields {
		value, ok := values[f.Name]
		if !ok || form.IsNil(value) {
			_ = tmpl.Assign(f.Loc, form.Nil)
			res.Missing = append(res.Missing, MissingField{Section: sectionName, Field: f.Name, Reason: ReasonNotFound})
			continue
		}
		if err := tmpl.Assign(f.Loc, value); err != nil {
			res.Missing = append(res.Missing, MissingField{Section: sectionName, Field: f.Name, Reason: ReasonSchema})
			continue
		}
		res.Stats.FieldsFilled++
	}
}

func (o *Orchestrator) completeWithRetry(ctx context.Context, res *Result, req llm.Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < o.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := o.cfg.RetryBaseDelay * (1 << (attempt - 1))
			o.logger.Warn("extract.llm.retry", "attempt", attempt+1, "delay", delay, "error", lastErr)
			res.Stats.Retries++
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		res.Stats.Requests++
		answer, err := o.completer.CompleteJSON(ctx, req)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (o *Orchestrator) markBatchMissing(res *Result, sectionName string, batch Batch, reason string) {
	for _, f := range batch.Fields {
		res.Missing = append(res.Missing, MissingField{Section: sectionName, Field: f.Name, Reason: reason})
	}
}

// batchQuery joins the batch's prompts into the retrieval query so the
// fetched chunks cover every question in the request.
func batchQuery(batch Batch) string {
	parts := make([]string, 0, len(batch.Fields))
	for _, f := range batch.Fields {
		parts = append(parts, f.Prompt)
	}
	return strings.Join(parts, " ")
}

func classifyReason(err error) string {
	switch {
	case errors.Is(err, common.ErrSchemaValidationFailed):
		return ReasonSchema
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonRateLimit
	default:
		return ReasonLLM
	}
}
