package amm

import (
	"context"

	"github.com/holiman/uint256"

	"oracleAMM/internal/model"
)

const (
	opAddLiquidity      = "add_liquidity"
	opRemoveLiquidity   = "remove_liquidity"
	opRemoveAlternative = "remove_liquidity_alternative"
)

// AddLiquidity deposits amount of token and returns the shares minted. The
// first deposit into a pool locks the minimum liquidity permanently; later
// deposits mint pro rata and settle any pending fees first.
func (e *Engine) AddLiquidity(ctx context.Context, caller, token model.Principal, amount *uint256.Int) (*uint256.Int, error) {
	var minted *uint256.Int
	err := e.execute(ctx, opAddLiquidity, func(tx *txn) error {
		if isZero(amount) {
			return ErrZeroAmount
		}
		if err := bounded(amount); err != nil {
			return err
		}
		tx.transfer(token, caller, e.cfg.Account, amount)

		fees := new(uint256.Int)
		pool, ok := tx.pool(token)
		if !ok {
			locked := uint256.NewInt(e.cfg.MinimumLiquidity)
			if !amount.Gt(locked) {
				return ErrZeroAmount
			}
			minted = new(uint256.Int).Sub(amount, locked)
			tx.putPool(&model.Pool{
				Token:                 token,
				TotalLiquidity:        amount.Clone(),
				TotalShares:           minted.Clone(),
				LockedLiquidity:       locked,
				FeePool:               new(uint256.Int),
				CumulativeFeePerShare: new(uint256.Int),
			})
			tx.putPosition(&model.Position{
				Owner:         caller,
				Token:         token,
				Shares:        minted.Clone(),
				FeeCheckpoint: new(uint256.Int),
			})
		} else {
			var err error
			if isZero(pool.TotalShares) {
				minted = amount.Clone()
			} else if minted, err = mulDiv(amount, pool.TotalShares, pool.TotalLiquidity); err != nil {
				return err
			}
			if minted.IsZero() {
				return ErrZeroAmount
			}

			position, ok := tx.position(caller, token)
			if ok {
				if fees, err = settle(pool, position); err != nil {
					return err
				}
			} else {
				position = &model.Position{
					Owner:         caller,
					Token:         token,
					Shares:        new(uint256.Int),
					FeeCheckpoint: intOrZero(pool.CumulativeFeePerShare),
				}
			}
			if position.Shares, err = checkedAdd(position.Shares, minted); err != nil {
				return err
			}
			if pool.TotalLiquidity, err = checkedAdd(pool.TotalLiquidity, amount); err != nil {
				return err
			}
			if pool.TotalShares, err = checkedAdd(pool.TotalShares, minted); err != nil {
				return err
			}
			tx.putPool(pool)
			tx.putPosition(position)
			tx.transfer(token, e.cfg.Account, caller, fees)
		}

		tx.emit(model.Event{
			Kind:   model.EventLiquidityAdded,
			Caller: caller,
			Token:  token,
			Amount: amount.Clone(),
			Shares: minted.Clone(),
			Fees:   fees,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// RemoveLiquidity burns shares of token and pays the pro rata share of the
// redeemable liquidity plus every fee pending on the position.
func (e *Engine) RemoveLiquidity(ctx context.Context, caller, token model.Principal, shares *uint256.Int) (model.Redemption, error) {
	var result model.Redemption
	err := e.execute(ctx, opRemoveLiquidity, func(tx *txn) error {
		pool, position, err := e.burnable(tx, caller, token, shares)
		if err != nil {
			return err
		}
		amount, err := mulDiv(shares, pool.Redeemable(), pool.TotalShares)
		if err != nil {
			return err
		}
		fees, err := settle(pool, position)
		if err != nil {
			return err
		}
		if pool.TotalLiquidity, err = checkedSub(pool.TotalLiquidity, amount); err != nil {
			return err
		}
		if err := burn(tx, pool, position, shares); err != nil {
			return err
		}

		payout, err := checkedAdd(amount, fees)
		if err != nil {
			return err
		}
		tx.transfer(token, e.cfg.Account, caller, payout)
		tx.emit(model.Event{
			Kind:   model.EventLiquidityRemoved,
			Caller: caller,
			Token:  token,
			Amount: amount.Clone(),
			Shares: shares.Clone(),
			Fees:   fees.Clone(),
		})
		result = model.Redemption{Amount: amount, Fees: fees}
		return nil
	})
	if err != nil {
		return model.Redemption{}, err
	}
	return result, nil
}

// RemoveLiquidityWithAlternative burns shares of original and pays the
// principal converted into alternative at the oracle rate, without swap fees.
// The original pool keeps its liquidity; the alternative pool pays out.
// Pending fees are paid in original.
func (e *Engine) RemoveLiquidityWithAlternative(ctx context.Context, caller, original, alternative model.Principal, shares *uint256.Int, payload []byte) (model.Redemption, error) {
	var result model.Redemption
	refreshErr := e.refreshPrices(ctx, payload)
	err := e.execute(ctx, opRemoveAlternative, func(tx *txn) error {
		if refreshErr != nil {
			return refreshErr
		}
		pool, position, err := e.burnable(tx, caller, original, shares)
		if err != nil {
			return err
		}
		if original == alternative {
			return ErrPairNotSupported
		}
		pair, ok := tx.pair(original, alternative)
		if !ok {
			return ErrPairNotSupported
		}
		if !pair.Enabled {
			return ErrPairDisabled
		}
		altPool, ok := tx.pool(alternative)
		if !ok {
			return ErrInsufficientLiquidity
		}

		principal, err := mulDiv(shares, pool.Redeemable(), pool.TotalShares)
		if err != nil {
			return err
		}
		converted, pricing, err := e.executionAmount(ctx, tx, pair, principal, payload)
		if err != nil {
			return err
		}
		if converted.Gt(altPool.Redeemable()) {
			return ErrInsufficientLiquidity
		}
		fees, err := settle(pool, position)
		if err != nil {
			return err
		}
		if altPool.TotalLiquidity, err = checkedSub(altPool.TotalLiquidity, converted); err != nil {
			return err
		}
		if err := burn(tx, pool, position, shares); err != nil {
			return err
		}
		tx.putPool(altPool)

		tx.transfer(alternative, e.cfg.Account, caller, converted)
		tx.transfer(original, e.cfg.Account, caller, fees)
		tx.emit(model.Event{
			Kind:         model.EventAlternativeRemoved,
			Caller:       caller,
			Token:        original,
			CounterToken: alternative,
			Amount:       converted.Clone(),
			Shares:       shares.Clone(),
			Fees:         fees.Clone(),
			Pricing:      pricing,
		})
		result = model.Redemption{Amount: converted, Fees: fees}
		return nil
	})
	if err != nil {
		return model.Redemption{}, err
	}
	return result, nil
}

// burnable loads the pool and position a removal would burn from.
func (e *Engine) burnable(tx *txn, caller, token model.Principal, shares *uint256.Int) (*model.Pool, *model.Position, error) {
	if isZero(shares) {
		return nil, nil, ErrZeroAmount
	}
	if err := bounded(shares); err != nil {
		return nil, nil, err
	}
	position, ok := tx.position(caller, token)
	if !ok {
		return nil, nil, ErrNoPosition
	}
	if shares.Gt(position.Shares) {
		return nil, nil, ErrInsufficientShares
	}
	pool, ok := tx.pool(token)
	if !ok || isZero(pool.TotalShares) {
		return nil, nil, ErrNoPosition
	}
	return pool, position, nil
}

func burn(tx *txn, pool *model.Pool, position *model.Position, shares *uint256.Int) error {
	var err error
	if pool.TotalShares, err = checkedSub(pool.TotalShares, shares); err != nil {
		return err
	}
	if position.Shares, err = checkedSub(position.Shares, shares); err != nil {
		return err
	}
	tx.putPool(pool)
	if position.Shares.IsZero() {
		tx.deletePosition(position.Owner, position.Token)
	} else {
		tx.putPosition(position)
	}
	return nil
}

// GetPool returns a copy of token's pool.
func (e *Engine) GetPool(token model.Principal) (model.Pool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.st.pools[token]
	if !ok {
		return model.Pool{}, false
	}
	return *p.Clone(), true
}

// GetPosition returns a copy of owner's position in token's pool.
func (e *Engine) GetPosition(owner, token model.Principal) (model.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.st.positions[positionKey{owner: owner, token: token}]
	if !ok {
		return model.Position{}, false
	}
	return *p.Clone(), true
}
