package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oracleAMM/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS amm_events (
	sequence      BIGINT PRIMARY KEY,
	id            TEXT NOT NULL,
	kind          TEXT NOT NULL,
	caller        TEXT NOT NULL,
	token         TEXT,
	counter_token TEXT,
	amount        NUMERIC(39, 0),
	amount_out    NUMERIC(39, 0),
	lp_fee        NUMERIC(39, 0),
	protocol_fee  NUMERIC(39, 0),
	fees          NUMERIC(39, 0),
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS amm_snapshots (
	name       TEXT PRIMARY KEY,
	sequence   BIGINT NOT NULL,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for events and snapshots.
type Store struct {
	pool *pgxpool.Pool
	name string
}

func NewStore(ctx context.Context, dsn, name string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if name == "" {
		name = "default"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, name: name}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutEventBatch inserts events; already stored sequences are skipped.
func (s *Store) PutEventBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.Sequence, err)
		}
		batch.Queue(`
			INSERT INTO amm_events (
				sequence, id, kind, caller, token, counter_token,
				amount, amount_out, lp_fee, protocol_fee, fees, payload, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11::numeric,$12,$13)
			ON CONFLICT (sequence) DO NOTHING
		`,
			int64(ev.Sequence),
			ev.ID,
			string(ev.Kind),
			string(ev.Caller),
			nullable(string(ev.Token)),
			nullable(string(ev.CounterToken)),
			decimal(ev.Amount),
			decimal(ev.AmountOut),
			decimal(ev.LPFee),
			decimal(ev.ProtocolFee),
			decimal(ev.Fees),
			payload,
			ev.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot upserts the snapshot under the store name.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO amm_snapshots (name, sequence, state, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (name) DO UPDATE
			SET sequence = EXCLUDED.sequence, state = EXCLUDED.state, updated_at = now()
			WHERE amm_snapshots.sequence <= EXCLUDED.sequence
		`, s.name, int64(snap.Sequence), state)
		return err
	})
}

// LoadSnapshot returns the stored snapshot for the store name.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var state []byte
	row := s.pool.QueryRow(ctx, `SELECT state FROM amm_snapshots WHERE name=$1`, s.name)
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func decimal(v *uint256.Int) *string {
	if v == nil {
		return nil
	}
	d := v.Dec()
	return &d
}
