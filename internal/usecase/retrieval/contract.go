package retrieval

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
)

// Index is the similarity index the retriever reads from.
type Index interface {
	// Query returns up to n candidates ordered by ascending distance.
	// Nothing matching yields empty sequences, not an error.
	Query(ctx context.Context, text string, n int, f *filter.Expression) (result.Candidates, error)
	Count(ctx context.Context) (int, error)
	Categories(ctx context.Context) ([]string, error)
}
