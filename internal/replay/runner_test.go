package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
	"oracleAMM/internal/storage"
	"oracleAMM/internal/token"
)

const (
	btcFeedHex = "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"
	ethFeedHex = "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
)

var replayInput = strings.Join([]string{
	`# seed balances`,
	`{"op":"mint","caller":"deployer","token":"token-a","amount":"1000000000000"}`,
	`{"op":"mint","caller":"deployer","token":"token-b","amount":"1000000000000"}`,
	`{"op":"mint","caller":"deployer","token":"token-a","target":"alice","amount":"5000000000"}`,
	`{"op":"add-pair","caller":"deployer","token":"token-a","token_out":"token-b","feed_in":"` + btcFeedHex + `","feed_out":"` + ethFeedHex + `"}`,
	``,
	`{"op":"add-liquidity","caller":"deployer","token":"token-a","amount":"100000000000"}`,
	`{"op":"add-liquidity","caller":"deployer","token":"token-b","amount":"100000000000"}`,
	`{"op":"swap","caller":"alice","token":"token-a","token_out":"token-b","amount":"1000000000","min_amount_out":"0","payload":"0x` + strings.Repeat("00", 64) + `"}`,
	`{"op":"remove-liquidity","caller":"alice","token":"token-b","shares":"1"}`,
	`{"op":"collect-protocol-fees","caller":"deployer","token":"token-b"}`,
	`{"op":"launch","caller":"deployer"}`,
}, "\n")

type replayFixture struct {
	runner    *Runner
	engine    *amm.Engine
	ledger    *token.MemoryLedger
	results   string
	journal   string
	snapshots *storage.FileSnapshotStore
}

func newReplayFixture(t *testing.T, dir, input string, batch uint64) *replayFixture {
	t.Helper()
	prices := oracle.NewMemoryOracle()
	feedIn, err := ParseFeedID(btcFeedHex)
	require.NoError(t, err)
	feedOut, err := ParseFeedID(ethFeedHex)
	require.NoError(t, err)
	prices.SetPrice(feedIn, 6_000_000_000_000, 0, -8, 1)
	prices.SetPrice(feedOut, 300_000_000_000, 0, -8, 1)

	ledger := token.NewMemoryLedger()
	cfg := amm.DefaultConfig()
	cfg.Owner = "deployer"
	cfg.Pricing = amm.PricingLegacyParity
	engine, err := amm.New(cfg, prices, ledger, nil)
	require.NoError(t, err)

	inputPath := filepath.Join(dir, "ops.jsonl")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	f := &replayFixture{
		engine:    engine,
		ledger:    ledger,
		results:   filepath.Join(dir, "results.jsonl"),
		journal:   filepath.Join(dir, "events.jsonl"),
		snapshots: &storage.FileSnapshotStore{Path: filepath.Join(dir, "snapshot.json")},
	}
	f.runner = NewRunner(RunConfig{
		InputPath:         inputPath,
		BatchSize:         batch,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
	}, engine, ledger, storage.NewJsonlStorage(f.journal), storage.NewJsonlStorage(f.results), f.snapshots, nil)
	return f
}

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var out []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		out = append(out, row)
	}
	return out
}

func TestRunnerAppliesOperations(t *testing.T) {
	dir := t.TempDir()
	f := newReplayFixture(t, dir, replayInput, 4)

	summary, err := f.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Applied)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, uint64(12), summary.LastLine)
	assert.Equal(t, 5, summary.Events)

	results := readLines(t, f.results)
	require.Len(t, results, 10)
	swap := results[6]
	assert.Equal(t, "swap", swap["op"])
	output := swap["output"].(map[string]interface{})
	assert.Equal(t, "997000000", output["amount_out"])

	noPosition := results[7]
	assert.Equal(t, float64(407), noPosition["code"])
	assert.Contains(t, results[9]["error"], "unknown op")

	collected := results[8]["output"].(map[string]interface{})
	assert.Equal(t, "500000", collected["amount"])
	assert.Equal(t, uint256.NewInt(900_000_500_000), f.ledger.Balance("token-b", "deployer"))

	assert.Len(t, readLines(t, f.journal), 5)

	snap, ok, err := f.snapshots.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(5), snap.Sequence)
	assert.NotEmpty(t, snap.Balances)
	assert.Equal(t, model.Principal("deployer"), snap.Treasury)
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	f := newReplayFixture(t, dir, replayInput, 5)
	_, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	again := newReplayFixture(t, dir, replayInput, 5)
	snap, ok, err := again.snapshots.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, again.engine.Restore(snap))
	again.ledger.Restore(snap.Balances)

	summary, err := again.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Applied)
	assert.Zero(t, summary.Rejected)
	assert.Equal(t, uint64(12), summary.LastLine)
	assert.Len(t, readLines(t, f.results), 10)
	assert.Equal(t, uint256.NewInt(900_000_500_000), again.ledger.Balance("token-b", "deployer"))
}

func TestRunnerRefusesCheckpointAheadOfState(t *testing.T) {
	dir := t.TempDir()
	f := newReplayFixture(t, dir, replayInput, 5)
	_, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	fresh := newReplayFixture(t, dir, replayInput, 5)
	_, err = fresh.runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects event sequence 5, engine is at 0")
}

func TestRunnerRejectsMalformedInput(t *testing.T) {
	f := newReplayFixture(t, t.TempDir(), "{\"op\":\"mint\"\n", 2)
	_, err := f.runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestParseFeedID(t *testing.T) {
	id, err := ParseFeedID(btcFeedHex)
	require.NoError(t, err)
	assert.Equal(t, btcFeedHex, id.Hex())

	_, err = ParseFeedID("0x1234")
	require.Error(t, err)
	_, err = ParseFeedID("not-hex")
	require.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	data, err := ParsePayload("")
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = ParsePayload("0x504e4155")
	require.NoError(t, err)
	assert.Equal(t, []byte("PNAU"), data)

	_, err = ParsePayload("zz")
	require.Error(t, err)
}
