package amm

import (
	"context"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"oracleAMM/internal/model"
)

const (
	opSetTreasury         = "set_treasury"
	opCollectProtocolFees = "collect_protocol_fees"
)

func (e *Engine) SetTreasury(caller, treasury model.Principal) error {
	return e.execute(context.Background(), opSetTreasury, func(tx *txn) error {
		if err := e.requireOwner(tx, caller); err != nil {
			return err
		}
		if treasury == "" {
			return errPrincipalRequired
		}
		previous := tx.currentTreasury()
		tx.setTreasury(treasury)
		tx.emit(model.Event{Kind: model.EventTreasuryChanged, Caller: caller, Token: treasury})
		e.logger.Info("treasury changed",
			zap.String("previous", string(previous)),
			zap.String("treasury", string(treasury)),
		)
		return nil
	})
}

// CollectProtocolFees pays the accumulated protocol fees of token to the
// treasury and returns the amount collected. Only the treasury may collect,
// and an empty bucket fails ErrZeroAmount.
func (e *Engine) CollectProtocolFees(ctx context.Context, caller, token model.Principal) (*uint256.Int, error) {
	var collected *uint256.Int
	err := e.execute(ctx, opCollectProtocolFees, func(tx *txn) error {
		if caller != tx.currentTreasury() {
			return ErrNotAuthorized
		}
		collected = tx.feeBucket(token).Clone()
		if collected.IsZero() {
			return ErrZeroAmount
		}
		tx.putFees(token, new(uint256.Int))
		tx.transfer(token, e.cfg.Account, tx.currentTreasury(), collected)
		tx.emit(model.Event{Kind: model.EventProtocolFeesTaken, Caller: caller, Token: token, Amount: collected.Clone()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collected, nil
}

func (e *Engine) GetProtocolFees(token model.Principal) model.FeeBucket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.FeeBucket{Token: token, Amount: intOrZero(e.st.fees[token])}
}
