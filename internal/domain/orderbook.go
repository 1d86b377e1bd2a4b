package domain

import "time"

// PriceLevel is a single resting price+quantity rung on one side of a book.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Side identifies the taker direction of an order. It determines both the
// ladder consulted (asks for a buy, bids for a sell) and the sort direction
// used when walking levels.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Better reports whether price a fills before price b for this side: lower
// prices first for a buy, higher prices first for a sell. All side-dependent
// ordering in the analytics components goes through this single comparator.
func (s Side) Better(a, b float64) bool {
	if s == SideSell {
		return a > b
	}
	return a < b
}

// OrderbookSnapshot is a full snapshot of bids and asks for one market.
// Ladders are not guaranteed to arrive sorted; consumers that need
// best-price-first ordering sort a private copy.
type OrderbookSnapshot struct {
	MarketID  string
	Token     string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// Ladder returns the ladder consumed by a taker order on the given side:
// asks for a buy, bids for a sell.
func (s OrderbookSnapshot) Ladder(side Side) []PriceLevel {
	if side == SideSell {
		return s.Bids
	}
	return s.Asks
}

// Summary derives the best-bid/best-ask view of the snapshot used by the
// arbitrage scanner. Quantities are the resting size at the best level.
func (s OrderbookSnapshot) Summary() MarketSummary {
	sum := MarketSummary{MarketID: s.MarketID, Token: s.Token}
	for _, lvl := range s.Bids {
		if lvl.Price > sum.BestBid {
			sum.BestBid = lvl.Price
			sum.BidQuantity = lvl.Quantity
		}
	}
	for _, lvl := range s.Asks {
		if sum.BestAsk == 0 || lvl.Price < sum.BestAsk {
			sum.BestAsk = lvl.Price
			sum.AskQuantity = lvl.Quantity
		}
	}
	return sum
}
