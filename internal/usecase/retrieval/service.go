package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// Defaults for Service limits.
const (
	DefaultMaxTopK      = 10
	DefaultQueryTimeout = 10 * time.Second
)

// SearchOptions narrows a search by metadata. Blank fields impose no constraint.
type SearchOptions struct {
	Category string
	Source   string
}

// Service retrieves FAQ entries similar to a query.
type Service struct {
	index        Index
	maxTopK      int
	queryTimeout time.Duration
	logger       *zap.Logger
}

// New creates a retrieval service. A nil index, typed or not, makes every
// search fail with domain.ErrNotInitialized.
func New(index Index, logger *zap.Logger) *Service {
	if isNil(index) {
		index = nil
	}
	return &Service{
		index:        index,
		maxTopK:      DefaultMaxTopK,
		queryTimeout: DefaultQueryTimeout,
		logger:       logger,
	}
}

// WithMaxTopK configures the largest accepted topK.
func (s *Service) WithMaxTopK(n int) *Service {
	if n > 0 {
		s.maxTopK = n
	}
	return s
}

// WithQueryTimeout bounds each index round-trip.
func (s *Service) WithQueryTimeout(d time.Duration) *Service {
	if d > 0 {
		s.queryTimeout = d
	}
	return s
}

// MaxTopK returns the largest accepted topK.
func (s *Service) MaxTopK() int { return s.maxTopK }

// Validate checks query and topK without touching the index.
func (s *Service) Validate(query string, topK int) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query must not be empty: %w", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrInvalidArgument)
	}
	if topK > s.maxTopK {
		return fmt.Errorf("top_k must be at most %d, got %d: %w", s.maxTopK, topK, domain.ErrInvalidArgument)
	}
	return nil
}

// Search returns up to topK entries ordered by ascending distance.
//
// Invalid input and a missing index are returned as errors before any index call.
// Index failures degrade to an empty result; malformed candidates are skipped.
// A dependency of the index that reports domain.ErrNotInitialized is returned as is.
func (s *Service) Search(ctx context.Context, query string, topK int, opts SearchOptions) ([]result.Result, error) {
	if err := s.Validate(query, topK); err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, fmt.Errorf("similarity index: %w", domain.ErrNotInitialized)
	}
	f, err := filter.Build(opts.Category, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("filter: %v: %w", err, domain.ErrInvalidArgument)
	}

	log := s.log(ctx)

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	total, err := s.index.Count(qctx)
	if errors.Is(err, domain.ErrNotInitialized) {
		return nil, err
	}
	if err != nil {
		return s.degrade(log, fmt.Errorf("count: %w: %w", domain.ErrIndexQueryFailed, err)), nil
	}
	if total == 0 {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
		return []result.Result{}, nil
	}

	cands, err := s.index.Query(qctx, query, min(topK, total), f)
	if errors.Is(err, domain.ErrNotInitialized) {
		return nil, err
	}
	if err != nil {
		return s.degrade(log, fmt.Errorf("query: %w: %w", domain.ErrIndexQueryFailed, err)), nil
	}

	results := s.convert(log, cands)
	if len(results) == 0 {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.SearchesTotal.WithLabelValues("ok").Inc()
	}
	return results, nil
}

// Respond runs Search and wraps the results with the echoed query.
func (s *Service) Respond(ctx context.Context, query string, topK int, opts SearchOptions) (result.Response, error) {
	results, err := s.Search(ctx, query, topK, opts)
	if err != nil {
		return result.Response{}, err
	}
	return result.NewResponse(query, results), nil
}

// Count returns the number of indexed entries.
func (s *Service) Count(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("similarity index: %w", domain.ErrNotInitialized)
	}
	n, err := s.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrIndexQueryFailed, err)
	}
	return n, nil
}

// Categories returns the sorted distinct categories of indexed entries.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	if s.index == nil {
		return nil, fmt.Errorf("similarity index: %w", domain.ErrNotInitialized)
	}
	cats, err := s.index.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexQueryFailed, err)
	}
	return cats, nil
}

func isNil(index Index) bool {
	if index == nil {
		return true
	}
	v := reflect.ValueOf(index)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (s *Service) degrade(log *zap.Logger, err error) []result.Result {
	metrics.SearchesTotal.WithLabelValues("index_error").Inc()
	log.Error("Similarity index failed, returning no results", zap.Error(err))
	return []result.Result{}
}

// convert maps candidate rows to results in index order, skipping malformed rows.
func (s *Service) convert(log *zap.Logger, c result.Candidates) []result.Result {
	results := make([]result.Result, 0, c.Len())
	for i := range c.Rows() {
		r, err := candidateAt(c, i)
		if err != nil {
			metrics.MalformedRecordsTotal.Inc()
			log.Warn("Skipping index record", zap.Int("rank", i+1), zap.Error(err))
			continue
		}
		results = append(results, r)
	}
	return results
}

func candidateAt(c result.Candidates, i int) (result.Result, error) {
	if i >= c.Len() {
		return result.Result{}, fmt.Errorf("row %d beyond shortest sequence (%d): %w", i, c.Len(), domain.ErrMalformedRecord)
	}

	question := strings.TrimSpace(c.Documents[i])
	if question == "" {
		return result.Result{}, fmt.Errorf("missing question: %w", domain.ErrMalformedRecord)
	}
	meta := c.Metadatas[i]
	answer := strings.TrimSpace(meta[result.MetaAnswer])
	if answer == "" {
		return result.Result{}, fmt.Errorf("missing answer: %w", domain.ErrMalformedRecord)
	}
	d := c.Distances[i]
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return result.Result{}, fmt.Errorf("invalid distance %v: %w", d, domain.ErrMalformedRecord)
	}

	return result.New(question, answer, meta[result.MetaCategory], meta[result.MetaSource], d), nil
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
