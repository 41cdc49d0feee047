// Package docstore provides the persistent similarity index used for
// retrieval, backed by Chroma.
package docstore

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// Metadata keys stored with each chunk.
const (
	DocID = "doc_id"
	Hint  = "hint"
)

// ChromaStoreConfig configures the Chroma-backed store.
type ChromaStoreConfig struct {
	BaseURL       string
	Collection    string
	EmbeddingFunc embeddings.EmbeddingFunction
	RequestSize   int
}

// ChromaStore implements the similarity-store contract on a Chroma
// collection. The distance metric is the collection's; retrieval and
// indexing always go through the same collection, so they cannot drift.
type ChromaStore struct {
	requestSize int
	col         chroma.Collection
}

// NewChromaStore connects to Chroma and opens (or creates) the collection.
func NewChromaStore(ctx context.Context, cfg ChromaStoreConfig) (*ChromaStore, error) {
	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	col, err := client.GetOrCreateCollection(ctx, cfg.Collection,
		chroma.WithEmbeddingFunctionCreate(cfg.EmbeddingFunc))
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", cfg.Collection, err)
	}

	requestSize := cfg.RequestSize
	if requestSize <= 0 {
		requestSize = 32
	}
	return &ChromaStore{requestSize: requestSize, col: col}, nil
}

// Upsert writes chunks in buckets bounded by the configured request size.
// Chunk ids are deterministic, so writing the same document twice replaces
// records in place; concurrent writers for distinct documents touch
// disjoint ids and rely on the store's own write safety.
func (ds *ChromaStore) Upsert(ctx context.Context, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += ds.requestSize {
		end := min(start+ds.requestSize, len(chunks))
		bucket := chunks[start:end]

		ids := make([]chroma.DocumentID, 0, len(bucket))
		texts := make([]string, 0, len(bucket))
		metas := make([]chroma.DocumentMetadata, 0, len(bucket))
		for _, c := range bucket {
			ids = append(ids, chroma.DocumentID(c.ID))
			texts = append(texts, c.Text)
			metas = append(metas, chroma.NewDocumentMetadata(
				chroma.NewStringAttribute(DocID, c.DocID),
				chroma.NewStringAttribute(Hint, c.Hint),
			))
		}

		err := ds.col.Add(ctx,
			chroma.WithIDs(ids...),
			chroma.WithTexts(texts...),
			chroma.WithMetadatas(metas...),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunks: %w", err)
		}
	}
	return nil
}

// Query returns the k most similar chunks to the query text. An empty
// index yields an empty slice, not an error.
func (ds *ChromaStore) Query(ctx context.Context, query string, k int) ([]SearchResult, error) {
	r, err := ds.col.Query(ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	docGroups := r.GetDocumentsGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}
	docs := docGroups[0]
	metadatas := r.GetMetadatasGroups()[0]
	scores := r.GetDistancesGroups()[0]

	res := make([]SearchResult, 0, len(docs))
	for i := range docs {
		docID, _ := metadatas[i].GetString(DocID)
		hint, _ := metadatas[i].GetString(Hint)
		res = append(res, SearchResult{
			Text:  docs[i].ContentString(),
			DocID: docID,
			Hint:  hint,
			Score: float32(scores[i]),
		})
	}
	return res, nil
}

// Forget removes every chunk belonging to a document identity.
func (ds *ChromaStore) Forget(ctx context.Context, docID string) error {
	err := ds.col.Delete(ctx, chroma.WithWhereDelete(chroma.EqString(DocID, docID)))
	if err != nil {
		return fmt.Errorf("failed to forget doc %s: %w", docID, err)
	}
	return nil
}
