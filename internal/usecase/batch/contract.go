package batch

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// Searcher runs a single similarity search.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, opts retrieval.SearchOptions) ([]result.Result, error)
}
