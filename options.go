package faqdex

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	embedder  Embedder
	completer Completer
	logger    *zap.Logger
}

// WithRedis stores the index in Redis with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverRedis
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithValkey stores the index in Valkey with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverValkey
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithQdrant stores the index in a Qdrant collection over gRPC.
func WithQdrant(host string, port int, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverQdrant
		c.cfg.Database.Qdrant = config.QdrantConfig{Host: host, Port: port, APIKey: apiKey}
	})
}

// WithEmbedder sets the embedding provider. Required for search and ingest.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the answer generator. Without one, Ask returns
// the retrieved sources with an unavailable error.
func WithCompleter(cm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cm
	})
}

// WithIndex names the index and sets the embedding dimensions.
func WithIndex(name string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Index.Name = name
		c.cfg.Embedding.Dimensions = dimensions
	})
}

// WithHNSW sets HNSW parameters for the vector index.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Index.HNSWM = m
		c.cfg.Index.HNSWEFConstruct = efConstruct
	})
}

// WithMaxTopK caps the number of results per search.
func WithMaxTopK(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.MaxTopK = n
	})
}

// WithMaxBatchSize caps the number of queries per batch search.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Index.MaxBatchSize = size
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
