package domain

import "time"

// SlippageResult describes the realized fill of an order walked against a
// sorted ladder. Produced fresh per call and never mutated afterwards.
// JSON field names are part of the API contract; the delivery layer maps
// them straight into response bodies.
type SlippageResult struct {
	ExpectedPrice   float64 `json:"expectedPrice"`
	ActualPrice     float64 `json:"actualPrice"`
	SlippagePercent float64 `json:"slippagePercent"`
	PriceImpact     float64 `json:"priceImpact"`
	TotalCost       float64 `json:"totalCost"`
}

// SlippageLadderEntry is one slot of a multi-size slippage ladder. Slippage
// is nil when that size could not be computed (insufficient liquidity, empty
// ladder, invalid size); other slots in the same call are unaffected.
type SlippageLadderEntry struct {
	OrderSize float64         `json:"orderSize"`
	Slippage  *SlippageResult `json:"slippage"`
}

// LiquidityScore is the composite 0-100 book-health score.
// Resilience is always 0: it needs historical data, which is out of scope.
type LiquidityScore struct {
	Overall       float64 `json:"overall"`
	Depth         float64 `json:"depth"`
	Spread        float64 `json:"spread"`
	Concentration float64 `json:"concentration"`
	Resilience    float64 `json:"resilience"`
}

// ArbitrageOpportunity is a profitable cross-market spread for one token.
// Buy fills at the buy market's best ask, sell at the sell market's best bid.
type ArbitrageOpportunity struct {
	BuyMarket         string  `json:"buyMarket"`
	SellMarket        string  `json:"sellMarket"`
	BuyPrice          float64 `json:"buyPrice"`
	SellPrice         float64 `json:"sellPrice"`
	Spread            float64 `json:"spread"`
	SpreadPercent     float64 `json:"spreadPercent"`
	MaxProfitableSize float64 `json:"maxProfitableSize"`
	EstimatedProfit   float64 `json:"estimatedProfit"`
	Token             string  `json:"token"`
}

// RouteAllocation is one market's share of a split order. Price is the
// realized average fill price for that share.
type RouteAllocation struct {
	MarketID        string  `json:"marketId"`
	Amount          float64 `json:"amount"`
	Price           float64 `json:"price"`
	SlippagePercent float64 `json:"slippagePercent"`
}

// Route is a multi-market order split. Savings is the cost avoided versus
// filling the entire amount on the single best-priced market, never negative.
type Route struct {
	Allocations   []RouteAllocation `json:"allocations"`
	TotalAmount   float64           `json:"totalAmount"`
	AveragePrice  float64           `json:"averagePrice"`
	TotalSlippage float64           `json:"totalSlippage"`
	Savings       float64           `json:"savings"`
}

// StoredOpportunity is an ArbitrageOpportunity as persisted in scan history.
type StoredOpportunity struct {
	ID string `json:"id"`
	ArbitrageOpportunity
	DetectedAt time.Time `json:"detectedAt"`
}
