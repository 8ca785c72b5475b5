package amm

import (
	"context"

	"github.com/holiman/uint256"

	"oracleAMM/internal/model"
)

const opSwap = "swap"

// GetSwapAmounts previews a swap at the current oracle ratio without
// changing state or refreshing prices.
func (e *Engine) GetSwapAmounts(ctx context.Context, tokenIn, tokenOut model.Principal, amountIn *uint256.Int) (model.SwapAmounts, error) {
	if isZero(amountIn) {
		return model.SwapAmounts{}, ErrZeroAmount
	}
	if err := bounded(amountIn); err != nil {
		return model.SwapAmounts{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	pair, ok := e.st.pairs[pairKey{in: tokenIn, out: tokenOut}]
	if !ok {
		return model.SwapAmounts{}, ErrPairNotSupported
	}
	if !pair.Enabled {
		return model.SwapAmounts{}, ErrPairDisabled
	}
	in, out, err := e.quotes(ctx, e.st.oracle, pair)
	if err != nil {
		return model.SwapAmounts{}, err
	}
	gross, err := convert(amountIn, in, out)
	if err != nil {
		return model.SwapAmounts{}, err
	}
	return e.splitFees(gross)
}

// Swap trades amountIn of tokenIn for tokenOut. The input is added to the
// tokenIn pool; the gross output leaves the tokenOut pool, the LP fee accrues
// to its shareholders and the protocol fee to the tokenOut bucket.
func (e *Engine) Swap(ctx context.Context, caller, tokenIn, tokenOut model.Principal, amountIn, minAmountOut *uint256.Int, payload []byte) (model.SwapAmounts, error) {
	var result model.SwapAmounts
	refreshErr := e.refreshPrices(ctx, payload)
	err := e.execute(ctx, opSwap, func(tx *txn) error {
		if refreshErr != nil {
			return refreshErr
		}
		if isZero(amountIn) {
			return ErrZeroAmount
		}
		if err := bounded(amountIn); err != nil {
			return err
		}
		pair, ok := tx.pair(tokenIn, tokenOut)
		if !ok {
			return ErrPairNotSupported
		}
		if !pair.Enabled {
			return ErrPairDisabled
		}
		inPool, ok := tx.pool(tokenIn)
		if !ok {
			return ErrInsufficientLiquidity
		}
		outPool, ok := tx.pool(tokenOut)
		if !ok {
			return ErrInsufficientLiquidity
		}

		gross, pricing, err := e.executionAmount(ctx, tx, pair, amountIn, payload)
		if err != nil {
			return err
		}
		amounts, err := e.splitFees(gross)
		if err != nil {
			return err
		}
		if minAmountOut != nil && amounts.AmountOut.Lt(minAmountOut) {
			return ErrSlippageExceeded
		}
		if gross.Gt(outPool.Redeemable()) {
			return ErrInsufficientLiquidity
		}

		if inPool.TotalLiquidity, err = checkedAdd(inPool.TotalLiquidity, amountIn); err != nil {
			return err
		}
		if outPool.TotalLiquidity, err = checkedSub(outPool.TotalLiquidity, gross); err != nil {
			return err
		}
		if err := accrue(outPool, amounts.LPFee); err != nil {
			return err
		}
		bucket, err := checkedAdd(tx.feeBucket(tokenOut), amounts.ProtocolFee)
		if err != nil {
			return err
		}
		tx.putPool(inPool)
		tx.putPool(outPool)
		tx.putFees(tokenOut, bucket)

		tx.transfer(tokenIn, caller, e.cfg.Account, amountIn)
		tx.transfer(tokenOut, e.cfg.Account, caller, amounts.AmountOut)
		tx.emit(model.Event{
			Kind:         model.EventSwap,
			Caller:       caller,
			Token:        tokenIn,
			CounterToken: tokenOut,
			Amount:       amountIn.Clone(),
			AmountOut:    amounts.AmountOut.Clone(),
			LPFee:        amounts.LPFee.Clone(),
			ProtocolFee:  amounts.ProtocolFee.Clone(),
			Pricing:      pricing,
		})
		result = amounts
		return nil
	})
	if err != nil {
		return model.SwapAmounts{}, err
	}
	return result, nil
}
