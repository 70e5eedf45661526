package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// Defaults for Service.
const (
	DefaultMaxTokens         = 500
	DefaultCompletionTimeout = 30 * time.Second
)

const (
	unavailableText = "Answer generation is not available: no completion provider credentials are configured."
	failedText      = "The answer could not be generated. The sources below may still help."
)

// AskOptions tunes answer generation. Zero values select the service defaults.
type AskOptions struct {
	Role      string
	MaxTokens int
}

// Service synthesizes an answer from retrieved FAQ entries.
type Service struct {
	completer    TextCompletion
	maxTokens    int
	timeout      time.Duration
	lowRelevance int
	logger       *zap.Logger
}

// New creates an answer service. completer may be nil; Ask then reports the provider as unavailable.
func New(completer TextCompletion, logger *zap.Logger) *Service {
	return &Service{
		completer:    completer,
		maxTokens:    DefaultMaxTokens,
		timeout:      DefaultCompletionTimeout,
		lowRelevance: DefaultLowRelevancePercent,
		logger:       logger,
	}
}

// WithMaxTokens sets the default completion budget.
func (s *Service) WithMaxTokens(n int) *Service {
	if n > 0 {
		s.maxTokens = n
	}
	return s
}

// WithTimeout bounds each completion call.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithLowRelevancePercent sets the similarity threshold quoted in the system prompt.
func (s *Service) WithLowRelevancePercent(p int) *Service {
	if p > 0 && p <= 100 {
		s.lowRelevance = p
	}
	return s
}

// Ask answers query from results. It never returns an error: failures are
// reported inside the envelope together with the citations computed so far.
func (s *Service) Ask(ctx context.Context, query string, results []result.Result, opts AskOptions) domanswer.Envelope {
	if len(results) == 0 {
		metrics.AnswersTotal.WithLabelValues("empty").Inc()
		return domanswer.NewEmpty(query)
	}

	block, sources := Assemble(results)

	if s.completer == nil || !s.completer.Configured() {
		metrics.AnswersTotal.WithLabelValues("unavailable").Inc()
		return domanswer.NewFailed(query, unavailableText, domain.ErrCompletionUnavailable, sources)
	}

	role := strings.TrimSpace(opts.Role)
	if role == "" {
		role = DefaultRole
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.maxTokens
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.complete(cctx, systemPrompt(role, s.lowRelevance), userPrompt(block, query), maxTokens)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("empty completion: %w", domain.ErrCompletionFailed)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrCompletionFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err)
		}
		metrics.AnswersTotal.WithLabelValues("failed").Inc()
		logger.FromContextOr(ctx, s.logger).Error("Answer generation failed",
			zap.Int("sources", len(sources)), zap.Error(err))
		return domanswer.NewFailed(query, failedText, err, sources)
	}

	metrics.AnswersTotal.WithLabelValues("answered").Inc()
	return domanswer.NewAnswered(query, strings.TrimSpace(text), sources)
}

// complete isolates the provider call so a panicking client cannot escape Ask.
func (s *Service) complete(ctx context.Context, system, user string, maxTokens int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion panicked: %v: %w", r, domain.ErrCompletionFailed)
		}
	}()
	return s.completer.Complete(ctx, system, user, maxTokens)
}
