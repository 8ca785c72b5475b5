package amm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
	"oracleAMM/internal/token"
)

// PricingMode selects how mutating operations price a conversion.
type PricingMode string

const (
	// PricingOracle always converts at the oracle ratio.
	PricingOracle PricingMode = "oracle"
	// PricingLegacyParity converts 1:1 when the caller supplies a placeholder
	// price payload. Previews keep the oracle ratio.
	PricingLegacyParity PricingMode = "legacy-parity"
)

const (
	pricingLabelOracle = "oracle"
	pricingLabelParity = "parity"
)

type Config struct {
	Owner            model.Principal
	Treasury         model.Principal
	Account          model.Principal
	LPFeeBps         uint64
	ProtocolFeeBps   uint64
	MinimumLiquidity uint64
	Pricing          PricingMode
}

func DefaultConfig() Config {
	return Config{
		Account:          "oracle-amm",
		LPFeeBps:         25,
		ProtocolFeeBps:   5,
		MinimumLiquidity: 1000,
		Pricing:          PricingOracle,
	}
}

func (c Config) validate() error {
	if c.Owner == "" {
		return fmt.Errorf("amm: owner is required")
	}
	if c.Account == "" {
		return fmt.Errorf("amm: engine account is required")
	}
	if c.LPFeeBps+c.ProtocolFeeBps > 10_000 {
		return fmt.Errorf("amm: fee bps %d+%d exceed 10000", c.LPFeeBps, c.ProtocolFeeBps)
	}
	switch c.Pricing {
	case PricingOracle, PricingLegacyParity:
	default:
		return fmt.Errorf("amm: unknown pricing mode %q", c.Pricing)
	}
	return nil
}

// Observer receives the outcome of every operation and each committed event.
// Calls happen while the engine lock is held and must not call back into the
// engine.
type Observer interface {
	ObserveOperation(op string, err error, elapsed time.Duration)
	ObserveEvent(ev model.Event)
}

// Engine is the oracle-priced liquidity ledger. All mutating operations are
// serialized and either commit entirely or leave state untouched.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	st        *state
	ledger    token.Ledger
	logger    *zap.Logger
	observers []Observer
	now       func() time.Time
}

func New(cfg Config, priceOracle oracle.Client, ledger token.Ledger, logger *zap.Logger) (*Engine, error) {
	if cfg.Treasury == "" {
		cfg.Treasury = cfg.Owner
	}
	if cfg.Pricing == "" {
		cfg.Pricing = PricingOracle
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("amm: token ledger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		st:     newState(cfg.Owner, cfg.Treasury, priceOracle),
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}, nil
}

// SetClock overrides the event timestamp source, primarily for deterministic testing.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	e.now = now
}

func (e *Engine) AddObserver(o Observer) {
	if o == nil {
		return
	}
	e.mu.Lock()
	e.observers = append(e.observers, o)
	e.mu.Unlock()
}

func (e *Engine) Owner() model.Principal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.owner
}

func (e *Engine) Treasury() model.Principal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.treasury
}

// Account is the ledger account holding all pooled tokens and fees.
func (e *Engine) Account() model.Principal {
	return e.cfg.Account
}

func (e *Engine) Config() Config {
	return e.cfg
}

// execute runs fn against a staged transaction. Token transfers collected by
// fn are applied as one batch and state is committed only if that succeeds.
func (e *Engine) execute(ctx context.Context, op string, fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := time.Now()

	tx := newTxn(e.st)
	err := fn(tx)
	if err == nil && len(tx.transfers) > 0 {
		if applyErr := e.ledger.Apply(ctx, tx.transfers); applyErr != nil {
			err = fmt.Errorf("%s: apply transfers: %w", op, applyErr)
		}
	}
	if err != nil {
		e.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
		e.observeOperation(op, err, time.Since(start))
		return err
	}

	tx.commit()
	now := e.now().UTC()
	for i := range tx.events {
		e.st.sequence++
		tx.events[i].ID = uuid.NewString()
		tx.events[i].Sequence = e.st.sequence
		tx.events[i].Timestamp = now
	}
	e.observeOperation(op, nil, time.Since(start))
	for _, ev := range tx.events {
		e.logger.Debug("operation committed",
			zap.String("op", op),
			zap.String("kind", string(ev.Kind)),
			zap.Uint64("sequence", ev.Sequence),
			zap.String("caller", string(ev.Caller)),
		)
		for _, o := range e.observers {
			o.ObserveEvent(ev)
		}
	}
	return nil
}

func (e *Engine) observeOperation(op string, err error, elapsed time.Duration) {
	for _, o := range e.observers {
		o.ObserveOperation(op, err, elapsed)
	}
}

func (e *Engine) requireOwner(tx *txn, caller model.Principal) error {
	if caller != tx.owner() {
		return ErrNotAuthorized
	}
	return nil
}

func intOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
