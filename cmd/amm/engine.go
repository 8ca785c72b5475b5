package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/chain"
	"oracleAMM/internal/config"
	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
	"oracleAMM/internal/replay"
	"oracleAMM/internal/storage"
	"oracleAMM/internal/storage/postgres"
	"oracleAMM/internal/token"
)

type runtime struct {
	engine  *amm.Engine
	ledger  *token.MemoryLedger
	journal storage.Journal
	store   storage.SnapshotStore
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime wires the price source, ledger, engine and persistence, then
// restores the latest snapshot if one exists.
func buildRuntime(ctx context.Context, engineCfg config.EngineConfig, storageCfg config.StorageConfig, logger *zap.Logger) (*runtime, error) {
	rt := &runtime{ledger: token.NewMemoryLedger()}

	priceSource, err := buildOracle(ctx, engineCfg.Oracle, logger, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	cfg := amm.DefaultConfig()
	cfg.Owner = model.Principal(engineCfg.Owner)
	cfg.Treasury = model.Principal(engineCfg.Treasury)
	if engineCfg.Account != "" {
		cfg.Account = model.Principal(engineCfg.Account)
	}
	cfg.LPFeeBps = engineCfg.LPFeeBps
	cfg.ProtocolFeeBps = engineCfg.ProtocolFeeBps
	cfg.MinimumLiquidity = engineCfg.MinimumLiquidity
	cfg.Pricing = amm.PricingMode(engineCfg.Pricing)

	rt.engine, err = amm.New(cfg, priceSource, rt.ledger, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if storageCfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, storageCfg.PGDSN, storageCfg.StateName)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		rt.journal, rt.store = store, store
	} else {
		rt.journal = storage.NewJsonlStorage(storageCfg.Journal)
		rt.store = &storage.FileSnapshotStore{Path: storageCfg.Snapshot}
	}

	snap, ok, err := rt.store.LoadSnapshot(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if ok {
		if err := rt.engine.Restore(snap); err != nil {
			rt.Close()
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
		rt.ledger.Restore(snap.Balances)
		logger.Info("snapshot restored",
			zap.Uint64("sequence", snap.Sequence),
			zap.Int("pools", len(snap.Pools)),
			zap.Int("positions", len(snap.Positions)),
		)
	}
	return rt, nil
}

func buildOracle(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger, rt *runtime) (oracle.Client, error) {
	var client oracle.Client
	switch cfg.Backend {
	case "", "memory":
		specs, err := config.ParsePriceSpecs(cfg.Prices)
		if err != nil {
			return nil, err
		}
		mem := oracle.NewMemoryOracle()
		now := uint64(time.Now().Unix())
		for _, spec := range specs {
			feed, err := replay.ParseFeedID(spec.Feed)
			if err != nil {
				return nil, err
			}
			mem.SetPrice(feed, spec.Price, 0, spec.Expo, now)
		}
		client = mem
	case "evm":
		if cfg.RPCURL == "" {
			return nil, fmt.Errorf("rpc url is required for the evm oracle")
		}
		if !common.IsHexAddress(cfg.Contract) {
			return nil, fmt.Errorf("invalid oracle contract address %q", cfg.Contract)
		}
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		rt.closers = append(rt.closers, chainClient.Close)
		evm, err := oracle.NewEVMClient(chainClient, oracle.EVMConfig{
			Contract:     common.HexToAddress(cfg.Contract),
			PrivateKey:   cfg.PrivateKey,
			MaxRetries:   3,
			RetryBackoff: 500 * time.Millisecond,
		}, logger)
		if err != nil {
			return nil, err
		}
		client = evm
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.Backend)
	}

	if cfg.MaxAge > 0 || cfg.MaxConfidenceBps > 0 {
		client = oracle.NewGuarded(client, cfg.MaxAge, cfg.MaxConfidenceBps)
	}
	return client, nil
}

// saveSnapshot persists engine state together with ledger balances.
func (r *runtime) saveSnapshot(ctx context.Context) (model.Snapshot, error) {
	snap := r.engine.SnapshotWith(r.ledger.Balances)
	return snap, r.store.SaveSnapshot(ctx, snap)
}
