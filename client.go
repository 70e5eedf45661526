package faqdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain"
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	answeruc "github.com/kailas-cloud/faqdex/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/faqdex/internal/usecase/batch"
	ingestuc "github.com/kailas-cloud/faqdex/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// Client is the faqdex SDK entry point.
type Client struct {
	store     db.Store
	retrieval *retrievaluc.Service
	answers   *answeruc.Pipeline
	batch     *batchuc.Service
	ingest    *ingestuc.Service
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	cc.cfg.ApplyDefaults()

	if cc.cfg.Database.Driver != config.DriverQdrant && len(cc.cfg.Database.Addrs) == 0 {
		return nil, errors.New("faqdex: database address required (use WithRedis, WithValkey or WithQdrant)")
	}

	store, err := app.OpenStore(cc.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("faqdex: %w", err)
	}

	timeout := time.Duration(cc.cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(context.Background(), timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("faqdex: database not ready: %w", err)
	}

	return wireClient(store, cc), nil
}

func wireClient(store db.Store, cc *clientConfig) *Client {
	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var emb domain.Embedder = noopEmbedder{}
	if cc.embedder != nil {
		emb = &embedderAdapter{inner: cc.embedder}
	}
	var completer answeruc.TextCompletion
	if cc.completer != nil {
		completer = &completerAdapter{inner: cc.completer}
	}

	index := app.NewIndex(cc.cfg, store, emb)
	retrieval := retrievaluc.New(index, logger).WithMaxTopK(cc.cfg.Retrieval.MaxTopK)
	answers := answeruc.New(completer, logger).
		WithMaxTokens(cc.cfg.Completion.MaxTokens).
		WithLowRelevancePercent(cc.cfg.Retrieval.LowRelevancePercent)

	batch := batchuc.New(retrieval, logger).
		WithMaxBatchSize(cc.cfg.Index.MaxBatchSize).
		WithConcurrency(cc.cfg.Retrieval.BatchConcurrency)

	return &Client{
		store:     store,
		retrieval: retrieval,
		answers:   answeruc.NewPipeline(retrieval, answers),
		batch:     batch,
		ingest:    ingestuc.New(index, logger),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest creates the index if needed and upserts entries in order.
// Per-entry failures are reported in the results.
func (c *Client) Ingest(ctx context.Context, entries []Entry) ([]IngestResult, error) {
	records := make([]ingestuc.Record, len(entries))
	for i, e := range entries {
		records[i] = ingestuc.Record{
			ID: e.ID, Question: e.Question, Answer: e.Answer,
			Category: e.Category, Source: e.Source,
		}
	}
	results, err := c.ingest.Ingest(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	out := make([]IngestResult, len(results))
	for i, r := range results {
		out[i] = IngestResult{ID: r.ID(), Err: r.Err()}
	}
	return out, nil
}

// Search returns up to topK entries most similar to query.
// Index failures yield an empty slice. Invalid input, and a client built
// without WithEmbedder, are errors.
func (c *Client) Search(ctx context.Context, query string, topK int, opts SearchOptions) ([]Result, error) {
	results, err := c.retrieval.Search(ctx, query, topK, toSearchOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromResults(results), nil
}

// SearchBatch runs Search for every query and keys the results by query text.
// Failed and blank queries map to an empty slice.
func (c *Client) SearchBatch(ctx context.Context, queries []string, topK int, opts SearchOptions) map[string][]Result {
	many := c.batch.SearchMany(ctx, queries, topK, toSearchOptions(opts))
	out := make(map[string][]Result, len(many))
	for q, results := range many {
		out[q] = fromResults(results)
	}
	return out
}

// Ask retrieves up to topK entries and generates an answer grounded in them.
// Generation failures are reported in Answer.Error, not as an error.
func (c *Client) Ask(ctx context.Context, query string, topK int, opts AskOptions) (Answer, error) {
	env, err := c.answers.Ask(ctx, query, topK,
		answeruc.AskOptions{Role: opts.Role, MaxTokens: opts.MaxTokens},
		toSearchOptions(opts.SearchOptions))
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return fromEnvelope(env), nil
}

// Categories lists the distinct category labels in the index.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	cats, err := c.retrieval.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return cats, nil
}

// Count returns the number of indexed entries.
func (c *Client) Count(ctx context.Context) (int, error) {
	n, err := c.retrieval.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func toSearchOptions(o SearchOptions) retrievaluc.SearchOptions {
	return retrievaluc.SearchOptions{Category: o.Category, Source: o.Source}
}

func fromResults(results []result.Result) []Result {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			Question: r.Question(), Answer: r.Answer(),
			Category: r.Category(), Source: r.Source(),
			Distance: r.Distance(),
		}
	}
	return out
}

func fromEnvelope(env domanswer.Envelope) Answer {
	sources := make([]Citation, len(env.Sources()))
	for i, s := range env.Sources() {
		sources[i] = Citation{Question: s.Question(), SimilarityPercent: s.SimilarityPercent()}
	}
	return Answer{Query: env.Query(), Text: env.Text(), Sources: sources, Error: env.Err()}
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	v, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

// noopEmbedder fails every call; used when no embedder is configured.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"faqdex: embedder not configured (use WithEmbedder): %w", domain.ErrNotInitialized)
}

// completerAdapter wraps the public Completer. A caller-supplied completer is always configured.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	text, err := a.inner.Complete(ctx, system, user, maxTokens)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return text, nil
}

func (a *completerAdapter) Configured() bool { return true }
