package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports how many entries the index holds.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// CompletionChecker reports whether the completion provider has credentials.
type CompletionChecker interface {
	Configured() bool
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
