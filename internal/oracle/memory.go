package oracle

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"oracleAMM/internal/model"
)

// MemoryOracle is an in-process price source whose feeds are set directly.
type MemoryOracle struct {
	mu      sync.RWMutex
	quotes  map[common.Hash]model.PriceQuote
	updates int
	// UpdateErr, when set, is returned by every UpdatePriceFeeds call.
	UpdateErr error
}

func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{quotes: make(map[common.Hash]model.PriceQuote)}
}

// SetPrice publishes a quote for a feed, replacing any previous value.
func (o *MemoryOracle) SetPrice(feedID common.Hash, price int64, conf uint64, expo int32, publishTime uint64) {
	o.mu.Lock()
	o.quotes[feedID] = model.PriceQuote{
		FeedID:      feedID,
		Price:       price,
		Conf:        conf,
		Expo:        expo,
		PublishTime: publishTime,
	}
	o.mu.Unlock()
}

// UpdatePriceFeeds counts the update; payload contents are not interpreted.
func (o *MemoryOracle) UpdatePriceFeeds(_ context.Context, _ []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.UpdateErr != nil {
		return o.UpdateErr
	}
	o.updates++
	return nil
}

// Updates returns how many update payloads were accepted.
func (o *MemoryOracle) Updates() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updates
}

func (o *MemoryOracle) Price(_ context.Context, feedID common.Hash) (model.PriceQuote, error) {
	o.mu.RLock()
	quote, ok := o.quotes[feedID]
	o.mu.RUnlock()
	if !ok {
		return model.PriceQuote{}, ErrFeedNotFound
	}
	return quote, nil
}
