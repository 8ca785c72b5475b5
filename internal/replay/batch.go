package replay

import "fmt"

// batch is a run of operations that is applied and persisted together. The
// checkpoint advances to the line of its last operation once it is stored.
type batch []numberedOperation

func (b batch) firstLine() uint64 { return b[0].line }
func (b batch) lastLine() uint64  { return b[len(b)-1].line }

// splitBatches groups ops into batches of at most size operations, keeping
// input order.
func splitBatches(ops []numberedOperation, size uint64) ([]batch, error) {
	if size == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	out := make([]batch, 0, (uint64(len(ops))+size-1)/size)
	for start := 0; start < len(ops); {
		end := start + int(size)
		if end > len(ops) || end < start {
			end = len(ops)
		}
		out = append(out, batch(ops[start:end]))
		start = end
	}
	return out, nil
}

// pending drops operations at or before the checkpointed line.
func pending(ops []numberedOperation, lastProcessed uint64) []numberedOperation {
	for i, op := range ops {
		if op.line > lastProcessed {
			return ops[i:]
		}
	}
	return nil
}
