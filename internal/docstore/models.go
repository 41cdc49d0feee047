package docstore

// Chunk is a bounded text window ready for upsert. Its ID is a
// deterministic function of (document identity, window offset), so
// re-ingesting an unchanged document writes the same records.
type Chunk struct {
	ID    string
	DocID string
	Text  string
	Hint  string
}

// SearchResult is one retrieval hit, most similar first.
type SearchResult struct {
	Text  string
	DocID string
	Hint  string
	Score float32
}
