// Command faqdex-seed loads FAQ entries from a YAML file into the similarity index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	ingestuc "github.com/kailas-cloud/faqdex/internal/usecase/ingest"
)

func main() {
	os.Exit(run())
}

func run() int {
	file := flag.String("file", "data/faq.yaml", "seed file with FAQ entries")
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 2
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "seed")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	records, err := ingestuc.LoadFile(*file)
	if err != nil {
		logger.Error("Failed to read seed file", zap.String("file", *file), zap.Error(err))
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

	logger.Info("Seeding index",
		zap.String("index", index.Name()),
		zap.String("file", *file),
		zap.Int("entries", len(records)),
	)

	results, err := ingestuc.New(index, logger).Ingest(ctx, records)
	if err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		return 1
	}

	sum := dombatch.Summarize(results)
	for _, r := range sum.Failed {
		logger.Error("Entry failed", zap.String("id", r.ID()), zap.Error(r.Err()))
	}
	if len(sum.Failed) > 0 {
		return 1
	}
	return 0
}
