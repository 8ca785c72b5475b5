package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(lines ...uint64) []numberedOperation {
	out := make([]numberedOperation, 0, len(lines))
	for _, line := range lines {
		out = append(out, numberedOperation{line: line})
	}
	return out
}

func TestSplitBatches(t *testing.T) {
	got, err := splitBatches(numbered(2, 3, 5, 6, 9), 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(2), got[0].firstLine())
	assert.Equal(t, uint64(3), got[0].lastLine())
	assert.Equal(t, uint64(5), got[1].firstLine())
	assert.Equal(t, uint64(6), got[1].lastLine())
	assert.Equal(t, uint64(9), got[2].firstLine())
	assert.Equal(t, uint64(9), got[2].lastLine())
}

func TestSplitBatchesLargerThanInput(t *testing.T) {
	got, err := splitBatches(numbered(1, 2, 3), 500)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0], 3)
}

func TestSplitBatchesRejectsZeroSize(t *testing.T) {
	_, err := splitBatches(numbered(1), 0)
	assert.Error(t, err)
}

func TestPendingSkipsCheckpointedLines(t *testing.T) {
	ops := numbered(2, 4, 7, 8)
	assert.Len(t, pending(ops, 0), 4)
	assert.Equal(t, uint64(7), pending(ops, 4)[0].line)
	assert.Equal(t, uint64(7), pending(ops, 5)[0].line)
	assert.Empty(t, pending(ops, 8))
}
