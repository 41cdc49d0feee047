package llm

import "context"

// Request is one structured-output completion: a system prompt, a user
// prompt, and the JSON Schema the answer must satisfy.
type Request struct {
	System string
	User   string
	Schema map[string]any
}

// Completer is the interface the extraction pipeline depends on. The
// returned bytes are a single JSON object already validated against
// req.Schema.
type Completer interface {
	CompleteJSON(ctx context.Context, req Request) ([]byte, error)
}
