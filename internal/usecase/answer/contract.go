package answer

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// TextCompletion generates text from a system and a user prompt.
type TextCompletion interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	// Configured reports whether credentials are present. Checked before any call.
	Configured() bool
}

// Retriever finds FAQ entries similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, opts retrieval.SearchOptions) ([]result.Result, error)
}
