package model

import "github.com/ethereum/go-ethereum/common"

// Pair is a directional swap route with its oracle feeds.
type Pair struct {
	TokenIn   Principal   `json:"token_in"`
	TokenOut  Principal   `json:"token_out"`
	Enabled   bool        `json:"enabled"`
	FeedIDIn  common.Hash `json:"feed_id_in"`
	FeedIDOut common.Hash `json:"feed_id_out"`
}

// PriceQuote is a single oracle observation.
type PriceQuote struct {
	FeedID      common.Hash `json:"feed_id"`
	Price       int64       `json:"price"`
	Conf        uint64      `json:"conf"`
	Expo        int32       `json:"expo"`
	PublishTime uint64      `json:"publish_time"`
}
