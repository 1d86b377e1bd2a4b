package domain

import "time"

// Market is one tradable venue/pair for a token, e.g. a DEX pool or a CEX
// book for ETH-USDC. MarketID is globally unique ("uniswap:0xabc..",
// "kraken:ETH-USDC").
type Market struct {
	ID          string
	Venue       string
	Token       string // base token symbol, exact-match key for grouping
	Quote       string
	PoolAddress string // checksummed contract address for on-chain venues, empty otherwise
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MarketSummary is the best-bid/best-ask record consumed by the arbitrage
// scanner. All quantities are non-negative; zero means the side is empty.
type MarketSummary struct {
	MarketID    string  `json:"marketId"`
	Token       string  `json:"token"`
	BestBid     float64 `json:"bestBid"`
	BestAsk     float64 `json:"bestAsk"`
	BidQuantity float64 `json:"bidQuantity"`
	AskQuantity float64 `json:"askQuantity"`
}

// MarketDepth pairs a market with the ladder a route allocation would
// consume on it.
type MarketDepth struct {
	MarketID string
	Ladder   []PriceLevel
}
