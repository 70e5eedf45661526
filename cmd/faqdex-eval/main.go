// Command faqdex-eval measures retrieval quality against labelled queries
// and optionally pushes the summary to a Prometheus Pushgateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
	evaluateuc "github.com/kailas-cloud/faqdex/internal/usecase/evaluate"
)

func main() {
	os.Exit(run())
}

func run() int {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 2
	}

	file := flag.String("file", cfg.Eval.QueriesFile, "YAML file with labelled queries")
	gateway := flag.String("pushgateway", cfg.Eval.PushgatewayURL, "Pushgateway URL; empty disables pushing")
	flag.Parse()

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "eval")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	cases, err := evaluateuc.LoadCases(*file)
	if err != nil {
		logger.Error("Failed to read eval queries", zap.String("file", *file), zap.Error(err))
		return 2
	}

	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		logger.Error("Failed to create database store", zap.Error(err))
		return 2
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Error("Database not ready", zap.Error(err))
		return 2
	}

	index := app.NewIndex(cfg, store, app.NewEmbedder(cfg.Embedding, store, logger))
	retrieval := app.NewRetrieval(cfg.Retrieval, index, logger)

	report := evaluateuc.New(retrieval, logger).Run(ctx, cases)
	logger.Info("Evaluation finished",
		zap.Int("queries", len(report.Outcomes)),
		zap.Float64("avg_similarity", report.AvgSimilarity),
		zap.Float64("category_accuracy", report.CategoryAccuracy),
	)

	if *gateway == "" {
		return 0
	}

	collectors := metrics.NewEvalCollectors()
	collectors.Queries.Set(float64(len(report.Outcomes)))
	collectors.AvgSimilarity.Set(report.AvgSimilarity)
	collectors.CategoryAccuracy.Set(report.CategoryAccuracy)
	for _, o := range report.Outcomes {
		collectors.QuerySimilarity.WithLabelValues(o.Query, o.ExpectedCategory).Set(o.Similarity)
	}

	if err := push.New(*gateway, cfg.Eval.Job).
		Gatherer(collectors.Registry).
		Grouping("index", index.Name()).
		PushContext(ctx); err != nil {
		logger.Error("Failed to push evaluation metrics", zap.String("url", *gateway), zap.Error(err))
		return 1
	}
	logger.Info("Pushed evaluation metrics", zap.String("url", *gateway), zap.String("job", cfg.Eval.Job))
	return 0
}
