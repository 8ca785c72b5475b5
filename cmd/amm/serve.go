package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oracleAMM/internal/api"
	"oracleAMM/internal/config"
	"oracleAMM/internal/metrics"
	"oracleAMM/internal/model"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	journal := &pendingEvents{}
	rt.engine.AddObserver(metrics.Engine())
	rt.engine.AddObserver(journal)

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: api.New(api.Config{
			JWTSecret:     cfg.JWTSecret,
			RatePerSecond: cfg.RateLimit,
			RateBurst:     cfg.RateBurst,
		}, rt.engine, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("owner", string(rt.engine.Owner())),
		zap.String("pricing", string(rt.engine.Config().Pricing)),
		zap.String("oracle", cfg.Engine.Oracle.Backend),
		zap.Duration("snapshot_interval", cfg.SnapshotInterval),
	)

	interval := cfg.SnapshotInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var serveErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err, ok := <-errCh:
			if ok {
				serveErr = err
			}
			break loop
		case <-ticker.C:
			if err := flush(ctx, rt, journal, logger); err != nil {
				logger.Warn("periodic flush failed", zap.Error(err))
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := flush(shutdownCtx, rt, journal, logger); err != nil {
		logger.Error("final flush failed", zap.Error(err))
		if serveErr == nil {
			serveErr = err
		}
	}
	return serveErr
}

func flush(ctx context.Context, rt *runtime, journal *pendingEvents, logger *zap.Logger) error {
	events := journal.drain()
	if len(events) > 0 {
		if err := rt.journal.PutEventBatch(ctx, events); err != nil {
			journal.requeue(events)
			return err
		}
	}
	snap, err := rt.saveSnapshot(ctx)
	if err != nil {
		return err
	}
	logger.Debug("state flushed", zap.Int("events", len(events)), zap.Uint64("sequence", snap.Sequence))
	return nil
}

// pendingEvents buffers committed events until the next journal flush.
type pendingEvents struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *pendingEvents) ObserveOperation(string, error, time.Duration) {}

func (p *pendingEvents) ObserveEvent(ev model.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *pendingEvents) drain() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.events
	p.events = nil
	return out
}

func (p *pendingEvents) requeue(events []model.Event) {
	p.mu.Lock()
	p.events = append(events, p.events...)
	p.mu.Unlock()
}
