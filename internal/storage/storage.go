package storage

import (
	"context"

	"oracleAMM/internal/model"
)

// Journal is a sink for committed engine events.
type Journal interface {
	PutEventBatch(ctx context.Context, events []model.Event) error
}

// SnapshotStore persists full engine snapshots.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
}
