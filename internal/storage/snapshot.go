package storage

import (
	"context"

	"oracleAMM/internal/model"
)

// FileSnapshotStore keeps the latest snapshot in a local JSON file. A nil
// store or an empty path disables it.
type FileSnapshotStore struct {
	Path string
}

func (s *FileSnapshotStore) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var snap model.Snapshot
	if s == nil || s.Path == "" {
		return snap, false, ctx.Err()
	}
	ok, err := ReadJSONFile(s.Path, &snap)
	return snap, ok, err
}

func (s *FileSnapshotStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.Path == "" {
		return nil
	}
	return WriteJSONFile(s.Path, snap)
}
