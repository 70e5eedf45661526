// Package app assembles stores, providers and services from configuration.
// Every command shares it so the server, seeder and evaluator see the same index.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/config"
	"github.com/kailas-cloud/faqdex/internal/db"
	dbQdrant "github.com/kailas-cloud/faqdex/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/faqdex/internal/db/redis"
	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/metrics"
	"github.com/kailas-cloud/faqdex/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/faqdex/internal/repository/index"
	ollamaTransport "github.com/kailas-cloud/faqdex/internal/transport/ollama"
	openaiTransport "github.com/kailas-cloud/faqdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/faqdex/internal/usecase/answer"
	retrievaluc "github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// OpenStore creates the database store selected by cfg.Driver.
func OpenStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			Valkey:   cfg.Driver == config.DriverValkey,
		})
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Driver, err)
		}
		return s, nil
	case config.DriverQdrant:
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			Host:   cfg.Qdrant.Host,
			Port:   cfg.Qdrant.Port,
			APIKey: cfg.Qdrant.APIKey,
			UseTLS: cfg.Qdrant.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewEmbedder builds the embedding chain: OpenAI-compatible provider, optionally cached.
// The cache needs a key-value capable store and is skipped otherwise.
func NewEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	metrics.RegisterProviderMetrics()

	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	if !cfg.Cache.Enabled {
		return embedder
	}
	kv, ok := store.(db.KVStore)
	if !ok {
		logger.Warn("Embedding cache requested but the store has no key-value support")
		return embedder
	}
	return embcache.New(embedder, kv, embcache.Options{
		Prefix:     cfg.Cache.Prefix,
		TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
		Dimensions: cfg.Dimensions,
	}, metrics.EmbeddingCacheTotal, logger)
}

// NewIndex creates the FAQ similarity index over store.
// Configured instructions are prepended to stored questions and queries respectively.
func NewIndex(cfg config.Config, store db.Store, embedder domain.Embedder) *indexrepo.Repo {
	docs := domain.WithInstruction(embedder, cfg.Embedding.DocumentInstruction)
	queries := domain.WithInstruction(embedder, cfg.Embedding.QueryInstruction)
	return indexrepo.New(store, docs, indexrepo.Config{
		Name:        cfg.Index.Name,
		KeyPrefix:   cfg.Index.KeyPrefix,
		Dimensions:  cfg.Embedding.Dimensions,
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	}).WithQueryEmbedder(queries)
}

// NewCompleter creates the text completion provider selected by cfg.Provider.
func NewCompleter(cfg config.CompletionConfig, logger *zap.Logger) (answeruc.TextCompletion, error) {
	metrics.RegisterProviderMetrics()

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Provider:    config.ProviderOpenAI,
			Logger:      logger,
		}), nil
	case config.ProviderOllama:
		c, err := ollamaTransport.NewCompleter(&ollamaTransport.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama completer: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

// NewRetrieval creates the retrieval service with configured limits.
func NewRetrieval(cfg config.RetrievalConfig, index retrievaluc.Index, logger *zap.Logger) *retrievaluc.Service {
	metrics.RegisterRetrievalMetrics()

	return retrievaluc.New(index, logger).
		WithMaxTopK(cfg.MaxTopK).
		WithQueryTimeout(time.Duration(cfg.QueryTimeoutSec) * time.Second)
}
