package faqdex

import "github.com/kailas-cloud/faqdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument        = domain.ErrInvalidArgument
	ErrNotInitialized         = domain.ErrNotInitialized
	ErrNotFound               = domain.ErrNotFound
	ErrCompletionUnavailable  = domain.ErrCompletionUnavailable
	ErrCompletionFailed       = domain.ErrCompletionFailed
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
