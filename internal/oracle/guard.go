package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"oracleAMM/internal/model"
)

// Guarded wraps a Client and rejects quotes that are non-positive, stale, or
// carry an overly wide confidence interval. Zero limits disable the check.
type Guarded struct {
	Client           Client
	MaxAge           time.Duration
	FutureTolerance  time.Duration
	MaxConfidenceBps uint64

	now func() time.Time
}

func NewGuarded(client Client, maxAge time.Duration, maxConfidenceBps uint64) *Guarded {
	return &Guarded{
		Client:           client,
		MaxAge:           maxAge,
		FutureTolerance:  30 * time.Second,
		MaxConfidenceBps: maxConfidenceBps,
	}
}

// SetClock overrides the guard clock, primarily for deterministic testing.
func (g *Guarded) SetClock(now func() time.Time) {
	g.now = now
}

func (g *Guarded) UpdatePriceFeeds(ctx context.Context, payload []byte) error {
	return g.Client.UpdatePriceFeeds(ctx, payload)
}

func (g *Guarded) Price(ctx context.Context, feedID common.Hash) (model.PriceQuote, error) {
	quote, err := g.Client.Price(ctx, feedID)
	if err != nil {
		return model.PriceQuote{}, err
	}
	if quote.Price <= 0 {
		return model.PriceQuote{}, fmt.Errorf("%w: feed %s price %d", ErrInvalidPrice, feedID.Hex(), quote.Price)
	}

	now := time.Now()
	if g.now != nil {
		now = g.now()
	}
	published := time.Unix(int64(quote.PublishTime), 0)
	if g.FutureTolerance > 0 && published.After(now.Add(g.FutureTolerance)) {
		return model.PriceQuote{}, fmt.Errorf("%w: feed %s published in the future", ErrStalePrice, feedID.Hex())
	}
	if g.MaxAge > 0 && now.Sub(published) > g.MaxAge {
		return model.PriceQuote{}, fmt.Errorf("%w: feed %s age %s", ErrStalePrice, feedID.Hex(), now.Sub(published).Truncate(time.Second))
	}

	if g.MaxConfidenceBps > 0 {
		width := new(big.Int).Mul(new(big.Int).SetUint64(quote.Conf), big.NewInt(10_000))
		limit := new(big.Int).Mul(big.NewInt(quote.Price), new(big.Int).SetUint64(g.MaxConfidenceBps))
		if width.Cmp(limit) > 0 {
			return model.PriceQuote{}, fmt.Errorf("%w: feed %s conf %d", ErrConfidenceTooWide, feedID.Hex(), quote.Conf)
		}
	}
	return quote, nil
}
