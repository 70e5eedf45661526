package ingest

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// Index stores FAQ entries for similarity search.
type Index interface {
	EnsureIndex(ctx context.Context) (created bool, err error)
	Upsert(ctx context.Context, e faq.Entry) error
}
