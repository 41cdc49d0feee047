package index

import (
	"context"
	"log/slog"
	"strings"

	"github.com/toladipo/docbrief/internal/docstore"
)

// Searcher is the query side of the vector store.
type Searcher interface {
	Query(ctx context.Context, query string, k int) ([]docstore.SearchResult, error)
}

// Retriever assembles an LLM context block from the top-k chunks for a query.
type Retriever struct {
	searcher Searcher
	topK     int
	logger   *slog.Logger
}

func NewRetriever(searcher Searcher, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{searcher: searcher, topK: topK, logger: logger}
}

// Retrieve returns the matching chunks, optionally restricted to the given
// document ids. Restriction happens after the query, so k results are
// requested with headroom to survive the filter.
func (r *Retriever) Retrieve(ctx context.Context, query string, docIDs []string) ([]docstore.SearchResult, error) {
	k := r.topK
	if len(docIDs) > 0 {
		k *= 2
	}
	results, err := r.searcher.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(docIDs) > 0 {
		allowed := make(map[string]bool, len(docIDs))
		for _, id := range docIDs {
			allowed[id] = true
		}
		kept := results[:0]
		for _, res := range results {
			if allowed[res.DocID] {
				kept = append(kept, res)
			}
		}
		results = kept
		if len(results) > r.topK {
			results = results[:r.topK]
		}
	}
	r.logger.Debug("retrieve.done", "query_len", len(query), "results", len(results))
	return results, nil
}

// ContextBlock flattens results into the text handed to the model, each
// chunk prefixed with its source hint.
func ContextBlock(results []docstore.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if res.Hint != "" {
			sb.WriteString("[" + res.Hint + "] ")
		}
		sb.WriteString(res.Text)
	}
	return sb.String()
}
