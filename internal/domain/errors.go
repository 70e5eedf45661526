package domain

import "errors"

var (
	// ErrInvalidArgument signals a request rejected before any external call
	// (empty query, non-positive top-k, malformed filter value).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotInitialized signals that the index or completion handle was never attached.
	ErrNotInitialized = errors.New("not initialized")
	// ErrIndexQueryFailed signals a failed similarity index call.
	ErrIndexQueryFailed = errors.New("index query failed")
	// ErrMalformedRecord signals an index candidate without required metadata.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrCompletionUnavailable signals a text completion provider without credentials.
	ErrCompletionUnavailable = errors.New("completion unavailable")
	// ErrCompletionFailed signals a failed text completion call.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
