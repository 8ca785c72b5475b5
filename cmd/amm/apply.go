package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oracleAMM/internal/config"
	"oracleAMM/internal/metrics"
	"oracleAMM/internal/replay"
	"oracleAMM/internal/storage"
)

func runApply(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadApply(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg.Engine, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.engine.AddObserver(metrics.Engine())

	runner := replay.NewRunner(replay.RunConfig{
		InputPath:         cfg.Input,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, rt.engine, rt.ledger, rt.journal, storage.NewJsonlStorage(cfg.Results), rt.store, logger)

	logger.Info("apply start",
		zap.String("in", cfg.Input),
		zap.String("results", cfg.Results),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("postgres", cfg.Storage.PGDSN != ""),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("apply complete",
		zap.Int("applied", summary.Applied),
		zap.Int("rejected", summary.Rejected),
		zap.Int("events", summary.Events),
		zap.Uint64("last_line", summary.LastLine),
	)
	return nil
}
