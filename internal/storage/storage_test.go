package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"oracleAMM/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	s := NewJsonlStorage(path)

	first := []model.Event{{Sequence: 1, Kind: model.EventSwap, Amount: uint256.NewInt(1_000_000_000)}}
	second := []model.Event{{Sequence: 2, Kind: model.EventLiquidityAdded}, {Sequence: 3, Kind: model.EventPairAdded}}
	if err := s.PutEventBatch(context.Background(), first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := s.PutEventBatch(context.Background(), second); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := s.PutEventBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var seqs []uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev model.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		seqs = append(seqs, ev.Sequence)
	}
	if !reflect.DeepEqual(seqs, []uint64{1, 2, 3}) {
		t.Fatalf("unexpected sequences %v", seqs)
	}
}

func TestFileSnapshotStoreRoundTrip(t *testing.T) {
	store := &FileSnapshotStore{Path: filepath.Join(t.TempDir(), "state", "snapshot.json")}

	_, ok, err := store.LoadSnapshot(context.Background())
	if err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	snap := model.Snapshot{
		Owner:    "owner",
		Treasury: "treasury",
		Sequence: 12,
		Pools: []model.Pool{{
			Token:                 "token-a",
			TotalLiquidity:        uint256.NewInt(99_000_000_000),
			TotalShares:           uint256.NewInt(99_999_999_000),
			LockedLiquidity:       uint256.NewInt(1000),
			FeePool:               uint256.NewInt(2_500_000),
			CumulativeFeePerShare: uint256.NewInt(25_000_000),
		}},
		TakenAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(store.Path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}

	got, ok, err := store.LoadSnapshot(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Sequence != 12 || got.Treasury != "treasury" {
		t.Fatalf("unexpected snapshot header %+v", got)
	}
	if !got.Pools[0].CumulativeFeePerShare.Eq(uint256.NewInt(25_000_000)) {
		t.Fatalf("accumulator lost: %s", got.Pools[0].CumulativeFeePerShare)
	}
}

func TestFileSnapshotStoreNilIsNoop(t *testing.T) {
	var store *FileSnapshotStore
	if err := store.SaveSnapshot(context.Background(), model.Snapshot{}); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
}

func TestReadJSONFileReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out map[string]interface{}
	ok, err := ReadJSONFile(path, &out)
	if err == nil || ok {
		t.Fatalf("expected parse error, got ok=%v err=%v", ok, err)
	}
}

func TestJsonlStorageHonorsCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewJsonlStorage(path).PutEventBatch(ctx, []model.Event{{Sequence: 1}})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("file should not be created")
	}
}
