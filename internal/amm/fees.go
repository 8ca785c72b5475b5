package amm

import (
	"github.com/holiman/uint256"

	"oracleAMM/internal/model"
)

// splitFees derives the LP and protocol cuts from a gross output. Each cut is
// floored independently and the user receives the remainder.
func (e *Engine) splitFees(gross *uint256.Int) (model.SwapAmounts, error) {
	lpFee, err := mulDiv(gross, uint256.NewInt(e.cfg.LPFeeBps), bpsDenominator)
	if err != nil {
		return model.SwapAmounts{}, err
	}
	protocolFee, err := mulDiv(gross, uint256.NewInt(e.cfg.ProtocolFeeBps), bpsDenominator)
	if err != nil {
		return model.SwapAmounts{}, err
	}
	out, err := checkedSub(gross, lpFee)
	if err != nil {
		return model.SwapAmounts{}, err
	}
	out, err = checkedSub(out, protocolFee)
	if err != nil {
		return model.SwapAmounts{}, err
	}
	return model.SwapAmounts{AmountOut: out, LPFee: lpFee, ProtocolFee: protocolFee}, nil
}

// accrue adds an LP fee to the pool and spreads it over the current shares.
// With no shares outstanding the fee is kept in the fee pool only.
func accrue(pool *model.Pool, lpFee *uint256.Int) error {
	feePool, err := checkedAdd(intOrZero(pool.FeePool), lpFee)
	if err != nil {
		return err
	}
	pool.FeePool = feePool
	if isZero(lpFee) || isZero(pool.TotalShares) {
		return nil
	}
	increment, overflow := new(uint256.Int).MulDivOverflow(lpFee, feePrecision, pool.TotalShares)
	if overflow {
		return ErrArithmeticOverflow
	}
	cumulative, overflow := new(uint256.Int).AddOverflow(intOrZero(pool.CumulativeFeePerShare), increment)
	if overflow {
		return ErrArithmeticOverflow
	}
	pool.CumulativeFeePerShare = cumulative
	return nil
}

// pendingFees is shares * (cumulative - checkpoint) / precision.
func pendingFees(pool *model.Pool, position *model.Position) (*uint256.Int, error) {
	cumulative := intOrZero(pool.CumulativeFeePerShare)
	checkpoint := intOrZero(position.FeeCheckpoint)
	if !cumulative.Gt(checkpoint) || isZero(position.Shares) {
		return new(uint256.Int), nil
	}
	delta := new(uint256.Int).Sub(cumulative, checkpoint)
	return mulDiv(position.Shares, delta, feePrecision)
}

// settle computes the position's pending fees and advances its checkpoint.
// The caller queues the payout transfer.
func settle(pool *model.Pool, position *model.Position) (*uint256.Int, error) {
	pending, err := pendingFees(pool, position)
	if err != nil {
		return nil, err
	}
	position.FeeCheckpoint = intOrZero(pool.CumulativeFeePerShare)
	return pending, nil
}

// GetUnclaimedFees returns the fees owner could claim from token's pool now.
func (e *Engine) GetUnclaimedFees(owner, token model.Principal) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	position, ok := e.st.positions[positionKey{owner: owner, token: token}]
	if !ok {
		return nil, ErrNoPosition
	}
	pool, ok := e.st.pools[token]
	if !ok {
		return new(uint256.Int), nil
	}
	return pendingFees(pool, position)
}
