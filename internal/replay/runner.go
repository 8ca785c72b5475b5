package replay

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/model"
	"oracleAMM/internal/retry"
	"oracleAMM/internal/storage"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	InputPath         string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// ResultSink receives the outcome of every replayed operation.
type ResultSink interface {
	PutResultBatch(ctx context.Context, results []model.OperationResult) error
}

// BalanceLedger is the token ledger a replay seeds and snapshots.
type BalanceLedger interface {
	Minter
	Balances() []model.Balance
}

// Summary reports what a replay did.
type Summary struct {
	Applied  int
	Rejected int
	Events   int
	LastLine uint64
}

// Runner applies a JSONL operation file to the engine in batches. Failed
// operations are recorded; persistence failures abort the run.
type Runner struct {
	cfg        RunConfig
	engine     *amm.Engine
	ledger     BalanceLedger
	journal    storage.Journal
	results    ResultSink
	snapshots  storage.SnapshotStore
	logger     *zap.Logger
	checkpoint *CheckpointStore
	buffer     *eventBuffer
}

// NewRunner builds a Runner and registers it as an engine observer.
// journal, results and snapshots may be nil.
func NewRunner(cfg RunConfig, engine *amm.Engine, ledger BalanceLedger, journal storage.Journal, results ResultSink, snapshots storage.SnapshotStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	buffer := &eventBuffer{}
	if engine != nil {
		engine.AddObserver(buffer)
	}
	return &Runner{
		cfg:        cfg,
		engine:     engine,
		ledger:     ledger,
		journal:    journal,
		results:    results,
		snapshots:  snapshots,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		buffer:     buffer,
	}
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if r.engine == nil {
		return summary, fmt.Errorf("engine is nil")
	}
	if r.cfg.BatchSize == 0 {
		return summary, fmt.Errorf("batch size must be greater than zero")
	}

	file, err := os.Open(r.cfg.InputPath)
	if err != nil {
		return summary, fmt.Errorf("open input: %w", err)
	}
	ops, err := readOperations(file)
	file.Close()
	if err != nil {
		return summary, err
	}
	if len(ops) == 0 {
		r.logger.Info("no operations to apply", zap.String("input", r.cfg.InputPath))
		return summary, nil
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return summary, err
	}
	if ok && cp.Input == r.cfg.InputPath {
		if seq := r.engine.Snapshot().Sequence; seq != cp.Sequence {
			return summary, fmt.Errorf("checkpoint at line %d expects event sequence %d, engine is at %d",
				cp.LastProcessedLine, cp.Sequence, seq)
		}
		summary.LastLine = cp.LastProcessedLine
		ops = pending(ops, cp.LastProcessedLine)
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedLine), zap.Int("remaining", len(ops)))
	}
	if len(ops) == 0 {
		r.logger.Info("nothing to apply", zap.Uint64("last_line", summary.LastLine))
		return summary, nil
	}

	batches, err := splitBatches(ops, r.cfg.BatchSize)
	if err != nil {
		return summary, err
	}

	for _, b := range batches {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		results := make([]model.OperationResult, 0, len(b))
		for _, item := range b {
			result, err := r.apply(ctx, item)
			if err != nil {
				return summary, err
			}
			if result.Error != "" {
				summary.Rejected++
			} else {
				summary.Applied++
			}
			results = append(results, result)
		}

		events := r.buffer.drain()
		summary.Events += len(events)
		if err := r.persist(ctx, b.lastLine(), events, results); err != nil {
			return summary, err
		}
		summary.LastLine = b.lastLine()

		r.logger.Info("batch complete",
			zap.Int("operations", len(results)),
			zap.Int("events", len(events)),
			zap.Uint64("from", b.firstLine()),
			zap.Uint64("to", b.lastLine()),
		)
	}

	return summary, nil
}

func (r *Runner) apply(ctx context.Context, item numberedOperation) (model.OperationResult, error) {
	result := model.OperationResult{Line: item.line, Op: item.op.Op, Caller: item.op.Caller}
	var minter Minter
	if r.ledger != nil {
		minter = r.ledger
	}
	output, err := Apply(ctx, r.engine, minter, item.op)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		result.Code = amm.Code(err)
		result.Error = err.Error()
		r.logger.Debug("operation rejected", zap.Uint64("line", item.line), zap.String("op", item.op.Op), zap.Error(err))
		return result, nil
	}
	result.Output = output
	return result, nil
}

func (r *Runner) persist(ctx context.Context, lastLine uint64, events []model.Event, results []model.OperationResult) error {
	if r.journal != nil && len(events) > 0 {
		err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			err := r.journal.PutEventBatch(ctx, events)
			if err != nil {
				r.logger.Warn("journal write failed", zap.Error(err), zap.Uint64("line", lastLine))
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("store events: %w", err)
		}
	}

	if r.results != nil && len(results) > 0 {
		err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			return r.results.PutResultBatch(ctx, results)
		})
		if err != nil {
			return fmt.Errorf("store results: %w", err)
		}
	}

	if r.snapshots != nil {
		var balances func() []model.Balance
		if r.ledger != nil {
			balances = r.ledger.Balances
		}
		snap := r.engine.SnapshotWith(balances)
		err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			err := r.snapshots.SaveSnapshot(ctx, snap)
			if err != nil {
				r.logger.Warn("snapshot save failed", zap.Error(err), zap.Uint64("sequence", snap.Sequence))
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}

	return r.checkpoint.Save(Checkpoint{
		Input:             r.cfg.InputPath,
		LastProcessedLine: lastLine,
		Sequence:          r.engine.Snapshot().Sequence,
	})
}

// eventBuffer collects committed events between batch flushes.
type eventBuffer struct {
	mu     sync.Mutex
	events []model.Event
}

func (b *eventBuffer) ObserveOperation(string, error, time.Duration) {}

func (b *eventBuffer) ObserveEvent(ev model.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *eventBuffer) drain() []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}
