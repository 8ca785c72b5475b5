package oracle

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"oracleAMM/internal/model"
)

var (
	// ErrFeedNotFound indicates the oracle has never published the requested feed.
	ErrFeedNotFound = errors.New("oracle: feed not found")
	// ErrInvalidPrice indicates a non-positive price.
	ErrInvalidPrice = errors.New("oracle: price must be positive")
	// ErrStalePrice indicates the quote is older than the configured window or too far in the future.
	ErrStalePrice = errors.New("oracle: price stale")
	// ErrConfidenceTooWide indicates the confidence interval exceeds the configured bound.
	ErrConfidenceTooWide = errors.New("oracle: confidence interval too wide")
	// ErrNoSigner indicates a price update was requested without a configured signing key.
	ErrNoSigner = errors.New("oracle: no signer configured for price updates")
)

// Client supplies price quotes. UpdatePriceFeeds refreshes feeds from an
// opaque update payload before they are read.
type Client interface {
	UpdatePriceFeeds(ctx context.Context, payload []byte) error
	Price(ctx context.Context, feedID common.Hash) (model.PriceQuote, error)
}

// IsPlaceholderPayload reports whether payload carries no update data:
// either empty or made only of zero bytes.
func IsPlaceholderPayload(payload []byte) bool {
	for _, b := range payload {
		if b != 0 {
			return false
		}
	}
	return true
}
