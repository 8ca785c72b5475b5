package model

import (
	"time"

	"github.com/holiman/uint256"
)

// EventKind names a committed engine operation.
type EventKind string

const (
	EventPairAdded          EventKind = "pair_added"
	EventPairToggled        EventKind = "pair_toggled"
	EventLiquidityAdded     EventKind = "liquidity_added"
	EventLiquidityRemoved   EventKind = "liquidity_removed"
	EventAlternativeRemoved EventKind = "liquidity_removed_alternative"
	EventSwap               EventKind = "swap"
	EventTreasuryChanged    EventKind = "treasury_changed"
	EventProtocolFeesTaken  EventKind = "protocol_fees_collected"
	EventOracleChanged      EventKind = "oracle_changed"
)

// Event is the journal record emitted after an operation commits.
type Event struct {
	ID           string       `json:"id"`
	Sequence     uint64       `json:"sequence"`
	Kind         EventKind    `json:"kind"`
	Caller       Principal    `json:"caller"`
	Token        Principal    `json:"token,omitempty"`
	CounterToken Principal    `json:"counter_token,omitempty"`
	Amount       *uint256.Int `json:"amount,omitempty"`
	Shares       *uint256.Int `json:"shares,omitempty"`
	AmountOut    *uint256.Int `json:"amount_out,omitempty"`
	LPFee        *uint256.Int `json:"lp_fee,omitempty"`
	ProtocolFee  *uint256.Int `json:"protocol_fee,omitempty"`
	Fees         *uint256.Int `json:"fees,omitempty"`
	Enabled      *bool        `json:"enabled,omitempty"`
	Pricing      string       `json:"pricing,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Snapshot is a full copy of engine state suitable for persistence.
type Snapshot struct {
	Owner        Principal   `json:"owner"`
	Treasury     Principal   `json:"treasury"`
	Sequence     uint64      `json:"sequence"`
	Pools        []Pool      `json:"pools"`
	Positions    []Position  `json:"positions"`
	Pairs        []Pair      `json:"pairs"`
	ProtocolFees []FeeBucket `json:"protocol_fees"`
	Balances     []Balance   `json:"balances,omitempty"`
	TakenAt      time.Time   `json:"taken_at"`
}
