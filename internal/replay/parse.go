package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"oracleAMM/internal/model"
)

// maxLineBytes bounds one input line; payloads of 8 KiB hex-encode to 16 KiB.
const maxLineBytes = 1 << 20

// numberedOperation is an operation with its 1-based input line.
type numberedOperation struct {
	line uint64
	op   model.Operation
}

// readOperations decodes a JSONL operation stream. Blank lines and lines
// starting with '#' are skipped but still counted.
func readOperations(r io.Reader) ([]numberedOperation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ops := make([]numberedOperation, 0)
	var line uint64
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var op model.Operation
		if err := json.Unmarshal([]byte(text), &op); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ops = append(ops, numberedOperation{line: line, op: op})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	return ops, nil
}

// ParseFeedID converts a 32-byte hex string into a feed id.
func ParseFeedID(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid feed id: %s", input)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid feed id length: %s", input)
	}
	return common.BytesToHash(data), nil
}

// ParsePayload decodes an optional hex price-update payload.
func ParsePayload(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return data, nil
}
