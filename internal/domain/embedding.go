package domain

import (
	"context"
	"fmt"
)

// Embedder turns FAQ questions and user queries into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker is implemented by providers that can be probed without embedding.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is a vector plus the provider's token accounting.
// Token counts are zero when the vector did not come from a provider call.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// WithInstruction returns an Embedder that prefixes every text with
// instruction, as asymmetric retrieval models expect (e.g. "query: ").
// An empty instruction returns inner unchanged.
func WithInstruction(inner Embedder, instruction string) Embedder {
	if instruction == "" {
		return inner
	}
	return instructed{inner: inner, instruction: instruction}
}

type instructed struct {
	inner       Embedder
	instruction string
}

func (e instructed) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("embed with instruction %q: %w", e.instruction, err)
	}
	return res, nil
}

// HealthCheck forwards to the wrapped embedder when it can be probed.
func (e instructed) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
