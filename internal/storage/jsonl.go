package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"oracleAMM/internal/model"
)

// JsonlStorage appends events or replay results to a JSONL file, one record
// per line. Each batch is synced before the call returns.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) Path() string {
	return s.path
}

func (s *JsonlStorage) PutEventBatch(ctx context.Context, events []model.Event) error {
	return s.append(ctx, len(events), func(enc *json.Encoder, i int) error {
		return enc.Encode(events[i])
	})
}

func (s *JsonlStorage) PutResultBatch(ctx context.Context, results []model.OperationResult) error {
	return s.append(ctx, len(results), func(enc *json.Encoder, i int) error {
		return enc.Encode(results[i])
	})
}

func (s *JsonlStorage) append(ctx context.Context, n int, encode func(enc *json.Encoder, i int) error) error {
	if n == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureParent(s.path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for i := 0; i < n; i++ {
		if err := encode(enc, i); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	return file.Sync()
}
