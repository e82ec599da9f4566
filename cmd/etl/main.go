package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/despotakis/sparkify-lake/internal/config"
	"github.com/despotakis/sparkify-lake/internal/logging"
	"github.com/despotakis/sparkify-lake/internal/pipeline"
	"github.com/despotakis/sparkify-lake/internal/storage"
)

func main() {
	configPath := flag.String("config", "dl.cfg", "path to the ini configuration file")
	statsPath := flag.String("stats", "etl_stats.json", "path to write the run summary")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *statsPath); err != nil {
		logger.Fatal("ETL job failed", zap.Error(err))
	}
	logger.Info("ETL job completed successfully")
}

func run(cfg config.Config, logger *zap.Logger, statsPath string) error {
	runID := uuid.NewString()
	logger.Info("starting sparkify lake ETL",
		zap.String("run_id", runID),
		zap.String("input_bucket", cfg.InputBucket),
		zap.String("output_bucket", cfg.OutputBucket))

	creds := storage.Credentials{
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Region:          cfg.AWS.Region,
	}
	in, err := storage.NewS3Store(creds, cfg.InputBucket)
	if err != nil {
		return err
	}
	out, err := storage.NewS3Store(creds, cfg.OutputBucket)
	if err != nil {
		return err
	}

	tw, err := pipeline.NewTableWriter(out, cfg.OutputPrefix, cfg.TempDir, logger)
	if err != nil {
		return err
	}
	defer tw.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Hour)
	defer cancel()

	start := time.Now()
	stats := pipeline.NewStats(runID)

	// The event phase joins against the catalog built here, so order is
	// fixed: metadata first, then events.
	catalog, err := pipeline.ProcessSongData(ctx, logger, in, tw, cfg.SongDataPattern, cfg.MaxParallelFetch, stats)
	if err != nil {
		return err
	}
	if err := pipeline.ProcessLogData(ctx, logger, in, tw, cfg.LogDataPattern, cfg.MaxParallelFetch, catalog, stats); err != nil {
		return err
	}

	stats.TotalExecutionTime = time.Since(start).String()
	writeStats(logger, statsPath, stats)
	return nil
}

// writeStats persists the run summary. Failures here are warnings, not
// job failures.
func writeStats(logger *zap.Logger, path string, stats *pipeline.Stats) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		logger.Warn("failed to serialize stats", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("failed to write stats file", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("run summary written", zap.String("path", path))
}
