package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	"github.com/kailas-cloud/faqdex/internal/domain/faq"
)

// Service loads FAQ entries into the similarity index.
type Service struct {
	index  Index
	logger *zap.Logger
}

// New creates an ingest service.
func New(index Index, logger *zap.Logger) *Service {
	return &Service{index: index, logger: logger}
}

// Ingest ensures the index exists and upserts every record in order.
// Per-record failures are reported in the results and do not stop the run.
// The returned error is set only when the index itself could not be prepared.
func (s *Service) Ingest(ctx context.Context, records []Record) ([]dombatch.Result, error) {
	if s.index == nil {
		return nil, fmt.Errorf("similarity index: %w", domain.ErrNotInitialized)
	}

	created, err := s.index.EnsureIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	if created {
		s.logger.Info("Index created")
	}

	results := make([]dombatch.Result, len(records))
	for i, rec := range records {
		id := rec.ID
		if id == "" {
			id = faq.ID(rec.Question)
		}

		if err := ctx.Err(); err != nil {
			results[i] = dombatch.NewError(id, err)
			continue
		}

		entry, err := faq.New(id, rec.Question, rec.Answer, rec.Category, rec.Source)
		if err != nil {
			results[i] = dombatch.NewError(id, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err))
			continue
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			s.logger.Warn("Entry not indexed", zap.String("id", id), zap.Error(err))
			results[i] = dombatch.NewError(id, fmt.Errorf("upsert: %w", err))
			continue
		}
		results[i] = dombatch.NewOK(id)
	}

	sum := dombatch.Summarize(results)
	s.logger.Info("Ingest finished",
		zap.Int("total", len(records)),
		zap.Int("ok", sum.OK),
		zap.Int("failed", len(sum.Failed)),
	)
	return results, nil
}
