package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
)

// convert prices amount of the input asset in units of the output asset:
// amount * priceIn * 10^expoIn / (priceOut * 10^expoOut), floored.
func convert(amount *uint256.Int, in, out model.PriceQuote) (*uint256.Int, error) {
	if in.Price <= 0 || out.Price <= 0 {
		return nil, fmt.Errorf("%w: in %d out %d", oracle.ErrInvalidPrice, in.Price, out.Price)
	}
	num := uint256.NewInt(uint64(in.Price))
	den := uint256.NewInt(uint64(out.Price))

	shift := int64(in.Expo) - int64(out.Expo)
	if shift > maxExpoShift || shift < -maxExpoShift {
		return nil, ErrArithmeticOverflow
	}
	var overflow bool
	switch {
	case shift > 0:
		num, overflow = new(uint256.Int).MulOverflow(num, pow10(uint64(shift)))
	case shift < 0:
		den, overflow = new(uint256.Int).MulOverflow(den, pow10(uint64(-shift)))
	}
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return mulDiv(amount, num, den)
}

func (e *Engine) quotes(ctx context.Context, client oracle.Client, pair model.Pair) (model.PriceQuote, model.PriceQuote, error) {
	if client == nil {
		return model.PriceQuote{}, model.PriceQuote{}, errOracleNotConfigured
	}
	in, err := client.Price(ctx, pair.FeedIDIn)
	if err != nil {
		return model.PriceQuote{}, model.PriceQuote{}, fmt.Errorf("price %s: %w", pair.FeedIDIn.Hex(), err)
	}
	out, err := client.Price(ctx, pair.FeedIDOut)
	if err != nil {
		return model.PriceQuote{}, model.PriceQuote{}, fmt.Errorf("price %s: %w", pair.FeedIDOut.Hex(), err)
	}
	return in, out, nil
}

// refreshPrices pushes a non-placeholder payload to the configured oracle.
// Callers run it before execute takes the engine lock, since an on-chain
// update blocks until its transaction is mined.
func (e *Engine) refreshPrices(ctx context.Context, payload []byte) error {
	if oracle.IsPlaceholderPayload(payload) {
		return nil
	}
	e.mu.Lock()
	client := e.st.oracle
	e.mu.Unlock()
	if client == nil {
		return nil
	}
	if err := client.UpdatePriceFeeds(ctx, payload); err != nil {
		return fmt.Errorf("update price feeds: %w", err)
	}
	return nil
}

// executionAmount converts amount along pair for a mutating operation.
// Feeds were already refreshed by refreshPrices.
func (e *Engine) executionAmount(ctx context.Context, tx *txn, pair model.Pair, amount *uint256.Int, payload []byte) (*uint256.Int, string, error) {
	if oracle.IsPlaceholderPayload(payload) && e.cfg.Pricing == PricingLegacyParity {
		e.logger.Warn("placeholder price payload, converting at parity",
			zap.String("token_in", string(pair.TokenIn)),
			zap.String("token_out", string(pair.TokenOut)),
			zap.String("amount", amount.Dec()),
		)
		return amount.Clone(), pricingLabelParity, nil
	}

	client := tx.currentOracle()
	if client == nil {
		return nil, "", errOracleNotConfigured
	}
	in, out, err := e.quotes(ctx, client, pair)
	if err != nil {
		return nil, "", err
	}
	converted, err := convert(amount, in, out)
	if err != nil {
		return nil, "", err
	}
	return converted, pricingLabelOracle, nil
}

// IsOracleError reports whether err came from the price source rather than
// the engine's own validation.
func IsOracleError(err error) bool {
	return errors.Is(err, errOracleNotConfigured) ||
		errors.Is(err, oracle.ErrFeedNotFound) ||
		errors.Is(err, oracle.ErrInvalidPrice) ||
		errors.Is(err, oracle.ErrStalePrice) ||
		errors.Is(err, oracle.ErrConfidenceTooWide) ||
		errors.Is(err, oracle.ErrNoSigner)
}
