package replay

import (
	"fmt"
	"time"

	"oracleAMM/internal/storage"
)

// Checkpoint records how far an input file has been applied and the engine
// event sequence reached at that point.
type Checkpoint struct {
	Input             string    `json:"input"`
	LastProcessedLine uint64    `json:"last_processed_line"`
	Sequence          uint64    `json:"sequence"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. It is a no-op when disabled
// or given no path.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	var cp Checkpoint
	if !c.enabled {
		return cp, false, nil
	}
	ok, err := storage.ReadJSONFile(c.path, &cp)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, ok, nil
}

func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.enabled {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC()
	if err := storage.WriteJSONFile(c.path, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
