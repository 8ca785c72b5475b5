package replay

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/model"
)

// Minter credits tokens outside the engine, for seeding replay balances.
type Minter interface {
	Mint(token, account model.Principal, amount *uint256.Int) error
}

type sharesOutput struct {
	Shares *uint256.Int `json:"shares"`
}

type amountOutput struct {
	Amount *uint256.Int `json:"amount"`
}

// Apply executes one operation against the engine and returns its output.
func Apply(ctx context.Context, engine *amm.Engine, minter Minter, op model.Operation) (interface{}, error) {
	switch op.Op {
	case model.OpMint:
		if minter == nil {
			return nil, fmt.Errorf("mint is not supported by this ledger")
		}
		if op.Amount == nil || op.Amount.IsZero() {
			return nil, amm.ErrZeroAmount
		}
		target := op.Target
		if target == "" {
			target = op.Caller
		}
		if err := minter.Mint(op.Token, target, op.Amount); err != nil {
			return nil, err
		}
		return amountOutput{Amount: op.Amount}, nil

	case model.OpAddPair:
		feedIn, err := ParseFeedID(op.FeedIn)
		if err != nil {
			return nil, err
		}
		feedOut, err := ParseFeedID(op.FeedOut)
		if err != nil {
			return nil, err
		}
		return nil, engine.AddPair(op.Caller, op.Token, op.TokenOut, feedIn, feedOut)

	case model.OpTogglePair:
		return nil, engine.TogglePair(op.Caller, op.Token, op.TokenOut, op.Enabled)

	case model.OpAddLiquidity:
		shares, err := engine.AddLiquidity(ctx, op.Caller, op.Token, op.Amount)
		if err != nil {
			return nil, err
		}
		return sharesOutput{Shares: shares}, nil

	case model.OpRemoveLiquidity:
		return engine.RemoveLiquidity(ctx, op.Caller, op.Token, op.Shares)

	case model.OpRemoveLiquidityAlt:
		payload, err := ParsePayload(op.Payload)
		if err != nil {
			return nil, err
		}
		return engine.RemoveLiquidityWithAlternative(ctx, op.Caller, op.Token, op.TokenOut, op.Shares, payload)

	case model.OpSwap:
		payload, err := ParsePayload(op.Payload)
		if err != nil {
			return nil, err
		}
		return engine.Swap(ctx, op.Caller, op.Token, op.TokenOut, op.Amount, op.MinAmountOut, payload)

	case model.OpSetTreasury:
		return nil, engine.SetTreasury(op.Caller, op.Target)

	case model.OpCollectProtocolFees:
		amount, err := engine.CollectProtocolFees(ctx, op.Caller, op.Token)
		if err != nil {
			return nil, err
		}
		return amountOutput{Amount: amount}, nil
	}
	return nil, fmt.Errorf("unknown op %q", op.Op)
}
