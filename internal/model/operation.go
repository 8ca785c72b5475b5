package model

import "github.com/holiman/uint256"

// Operation kinds accepted by the replay runner.
const (
	OpMint                = "mint"
	OpAddPair             = "add-pair"
	OpTogglePair          = "toggle-pair"
	OpAddLiquidity        = "add-liquidity"
	OpRemoveLiquidity     = "remove-liquidity"
	OpRemoveLiquidityAlt  = "remove-liquidity-alt"
	OpSwap                = "swap"
	OpSetTreasury         = "set-treasury"
	OpCollectProtocolFees = "collect-protocol-fees"
)

// Operation is one line of a replay input file.
type Operation struct {
	Op           string       `json:"op"`
	Caller       Principal    `json:"caller"`
	Token        Principal    `json:"token,omitempty"`
	TokenOut     Principal    `json:"token_out,omitempty"`
	Amount       *uint256.Int `json:"amount,omitempty"`
	MinAmountOut *uint256.Int `json:"min_amount_out,omitempty"`
	Shares       *uint256.Int `json:"shares,omitempty"`
	Enabled      bool         `json:"enabled,omitempty"`
	FeedIn       string       `json:"feed_in,omitempty"`
	FeedOut      string       `json:"feed_out,omitempty"`
	Payload      string       `json:"payload,omitempty"`
	Target       Principal    `json:"target,omitempty"`
}

// OperationResult records the outcome of a replayed operation.
type OperationResult struct {
	Line   uint64      `json:"line"`
	Op     string      `json:"op"`
	Caller Principal   `json:"caller"`
	Code   uint32      `json:"code,omitempty"`
	Error  string      `json:"error,omitempty"`
	Output interface{} `json:"output,omitempty"`
}
