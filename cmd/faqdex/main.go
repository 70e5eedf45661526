package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	"github.com/kailas-cloud/faqdex/internal/domain"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	chiTransport "github.com/kailas-cloud/faqdex/internal/transport/chi"
	answeruc "github.com/kailas-cloud/faqdex/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/faqdex/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	"github.com/kailas-cloud/faqdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "faqdex: load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "faqdex")
	if err != nil {
		fmt.Fprintln(os.Stderr, "faqdex: create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting faqdex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("index", cfg.Index.Name),
		zap.String("completion_provider", cfg.Completion.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

// serve wires the pipeline over the configured store and blocks until ctx is
// cancelled and in-flight requests have drained.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return err
	}
	logger.Info("Connected to database")

	embedder := app.NewEmbedder(cfg.Embedding, store, logger)
	index := app.NewIndex(cfg, store, embedder)

	completer, err := app.NewCompleter(cfg.Completion, logger)
	if err != nil {
		return fmt.Errorf("completion provider: %w", err)
	}
	if !completer.Configured() {
		logger.Warn("Completion provider has no credentials; /ask will return sources without an answer",
			zap.String("provider", cfg.Completion.Provider))
	}

	retrievalSvc := app.NewRetrieval(cfg.Retrieval, index, logger)
	answerSvc := answeruc.New(completer, logger).
		WithMaxTokens(cfg.Completion.MaxTokens).
		WithTimeout(time.Duration(cfg.Completion.TimeoutSec) * time.Second).
		WithLowRelevancePercent(cfg.Retrieval.LowRelevancePercent)
	batchSvc := batchuc.New(retrievalSvc, logger).
		WithMaxBatchSize(cfg.Index.MaxBatchSize).
		WithConcurrency(cfg.Retrieval.BatchConcurrency)

	healthSvc := healthuc.New(store, retrievalSvc, completer, index.Name())
	if hc, ok := embedder.(domain.HealthChecker); ok && cfg.Embedding.HealthProbe {
		healthSvc = healthSvc.WithEmbedding(hc)
	}

	switch n, err := retrievalSvc.Count(ctx); {
	case err != nil:
		logger.Warn("Index not readable yet; run faqdex-seed", zap.Error(err))
	case n == 0:
		logger.Warn("Index is empty; run faqdex-seed", zap.String("index", index.Name()))
	default:
		logger.Info("Index ready", zap.String("index", index.Name()), zap.Int("entries", n))
	}

	server := chiTransport.NewServer(retrievalSvc, answeruc.NewPipeline(retrievalSvc, answerSvc), batchSvc, healthSvc, logger).
		WithDefaultTopK(cfg.Retrieval.DefaultTopK)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: chiTransport.NewRouter(server, chiTransport.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			MaxAge:         cfg.CORS.MaxAgeSec,
		}, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
