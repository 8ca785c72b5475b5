package amm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
)

const (
	opAddPair    = "add_pair"
	opTogglePair = "toggle_pair"
	opSetOracle  = "set_oracle"
)

// AddPair registers, or overwrites, the directional route tokenIn to tokenOut
// as enabled with the given oracle feeds.
func (e *Engine) AddPair(caller, tokenIn, tokenOut model.Principal, feedIn, feedOut common.Hash) error {
	return e.execute(context.Background(), opAddPair, func(tx *txn) error {
		if err := e.requireOwner(tx, caller); err != nil {
			return err
		}
		if tokenIn == "" || tokenOut == "" {
			return errPrincipalRequired
		}
		if tokenIn == tokenOut {
			return ErrPairNotSupported
		}
		tx.putPair(model.Pair{
			TokenIn:   tokenIn,
			TokenOut:  tokenOut,
			Enabled:   true,
			FeedIDIn:  feedIn,
			FeedIDOut: feedOut,
		})
		tx.emit(model.Event{Kind: model.EventPairAdded, Caller: caller, Token: tokenIn, CounterToken: tokenOut})
		e.logger.Info("pair registered",
			zap.String("token_in", string(tokenIn)),
			zap.String("token_out", string(tokenOut)),
			zap.String("feed_in", feedIn.Hex()),
			zap.String("feed_out", feedOut.Hex()),
		)
		return nil
	})
}

func (e *Engine) TogglePair(caller, tokenIn, tokenOut model.Principal, enabled bool) error {
	return e.execute(context.Background(), opTogglePair, func(tx *txn) error {
		if err := e.requireOwner(tx, caller); err != nil {
			return err
		}
		pair, ok := tx.pair(tokenIn, tokenOut)
		if !ok {
			return ErrPairNotSupported
		}
		pair.Enabled = enabled
		tx.putPair(pair)
		tx.emit(model.Event{Kind: model.EventPairToggled, Caller: caller, Token: tokenIn, CounterToken: tokenOut, Enabled: &enabled})
		return nil
	})
}

func (e *Engine) GetPair(tokenIn, tokenOut model.Principal) (model.Pair, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.st.pairs[pairKey{in: tokenIn, out: tokenOut}]
	return p, ok
}

// SetOracle replaces the price source used by later operations.
func (e *Engine) SetOracle(caller model.Principal, client oracle.Client) error {
	return e.execute(context.Background(), opSetOracle, func(tx *txn) error {
		if err := e.requireOwner(tx, caller); err != nil {
			return err
		}
		if client == nil {
			return errOracleNotConfigured
		}
		tx.setOracle(client)
		tx.emit(model.Event{Kind: model.EventOracleChanged, Caller: caller})
		return nil
	})
}
