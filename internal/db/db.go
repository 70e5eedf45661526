package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces.
type Store interface {
	Pinger
	IndexManager
	PointWriter
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations. Only key-value capable
// backends implement it; callers type-assert.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Point is a single vector with its metadata fields.
// Key is the backend-independent document key (prefix + entry ID).
type Point struct {
	Key    string
	Vector []float32
	Fields map[string]string
}

// PointWriter stores vectors with metadata.
type PointWriter interface {
	UpsertPoints(ctx context.Context, index string, points []Point) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	// EnsureIndex creates the index unless it exists; created reports which happened.
	EnsureIndex(ctx context.Context, def *IndexDefinition) (created bool, err error)
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides read operations over an index.
// prefix is the document key prefix, used by backends that cannot count or
// enumerate through the index itself.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	Count(ctx context.Context, index, prefix string) (int, error)
	TagValues(ctx context.Context, index, prefix, field string) ([]string, error)
}
