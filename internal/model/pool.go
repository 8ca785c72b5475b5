package model

import "github.com/holiman/uint256"

// Principal identifies an account or a token contract.
type Principal string

// Pool is the per-token reserve record.
type Pool struct {
	Token                 Principal    `json:"token"`
	TotalLiquidity        *uint256.Int `json:"total_liquidity"`
	TotalShares           *uint256.Int `json:"total_shares"`
	LockedLiquidity       *uint256.Int `json:"locked_liquidity"`
	FeePool               *uint256.Int `json:"fee_pool"`
	CumulativeFeePerShare *uint256.Int `json:"cumulative_fee_per_share"`
}

// Clone returns a deep copy so callers cannot mutate engine state.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	return &Pool{
		Token:                 p.Token,
		TotalLiquidity:        cloneInt(p.TotalLiquidity),
		TotalShares:           cloneInt(p.TotalShares),
		LockedLiquidity:       cloneInt(p.LockedLiquidity),
		FeePool:               cloneInt(p.FeePool),
		CumulativeFeePerShare: cloneInt(p.CumulativeFeePerShare),
	}
}

// Redeemable returns the liquidity available to shareholders, excluding the
// locked seed. It never underflows.
func (p *Pool) Redeemable() *uint256.Int {
	if p == nil || p.TotalLiquidity == nil {
		return new(uint256.Int)
	}
	if p.LockedLiquidity == nil || p.TotalLiquidity.Lt(p.LockedLiquidity) {
		if p.LockedLiquidity == nil {
			return p.TotalLiquidity.Clone()
		}
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(p.TotalLiquidity, p.LockedLiquidity)
}

// Position is a depositor's share of one pool.
type Position struct {
	Owner         Principal    `json:"owner"`
	Token         Principal    `json:"token"`
	Shares        *uint256.Int `json:"shares"`
	FeeCheckpoint *uint256.Int `json:"fee_checkpoint"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	return &Position{
		Owner:         p.Owner,
		Token:         p.Token,
		Shares:        cloneInt(p.Shares),
		FeeCheckpoint: cloneInt(p.FeeCheckpoint),
	}
}

// FeeBucket holds protocol fees awaiting collection for one token.
type FeeBucket struct {
	Token  Principal    `json:"token"`
	Amount *uint256.Int `json:"amount"`
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
