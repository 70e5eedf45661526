package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

const (
	// MaxBatchSize is the default maximum number of queries per batch.
	MaxBatchSize = 100
	// DefaultConcurrency bounds how many queries of one batch run at once.
	DefaultConcurrency = 4
)

// Item is the outcome of one query in a batch.
type Item struct {
	Query   string
	Results []result.Result
	Err     error
}

// Service runs many searches with per-query error isolation.
type Service struct {
	search       Searcher
	maxBatchSize int
	concurrency  int
	logger       *zap.Logger
}

// New creates a batch service.
func New(search Searcher, logger *zap.Logger) *Service {
	return &Service{search: search, maxBatchSize: MaxBatchSize, concurrency: DefaultConcurrency, logger: logger}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithConcurrency configures how many queries run in parallel. 1 runs them sequentially.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// SearchAll runs every query and returns one Item per query in input order.
// A failing query yields an empty result list and its error; the rest still run.
func (s *Service) SearchAll(ctx context.Context, queries []string, topK int, opts retrieval.SearchOptions) ([]Item, error) {
	if len(queries) > s.maxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds %d: %w", len(queries), s.maxBatchSize, domain.ErrInvalidArgument)
	}

	log := logger.FromContextOr(ctx, s.logger)
	items := make([]Item, len(queries))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i] = Item{Query: q, Results: []result.Result{}, Err: err}
				return nil
			}
			results, err := s.search.Search(ctx, q, topK, opts)
			if err != nil {
				log.Warn("Batch query failed", zap.Int("position", i), zap.String("query", q), zap.Error(err))
				results = []result.Result{}
			}
			items[i] = Item{Query: q, Results: results, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

// SearchMany maps each query string to its results. Failed queries map to an
// empty list. When the same query appears twice the later run wins.
func (s *Service) SearchMany(ctx context.Context, queries []string, topK int, opts retrieval.SearchOptions) map[string][]result.Result {
	out := make(map[string][]result.Result, len(queries))

	items, err := s.SearchAll(ctx, queries, topK, opts)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Batch rejected", zap.Int("size", len(queries)), zap.Error(err))
		for _, q := range queries {
			out[q] = []result.Result{}
		}
		return out
	}

	for _, it := range items {
		out[it.Query] = it.Results
	}
	return out
}
