package analytics

import (
	"math"
	"sort"

	"github.com/liquidlens/liquidlens/internal/domain"
)

const (
	// depthLevels is how many best levels per side feed the depth measure.
	depthLevels = 10

	// depthNormalization is the total depth that maps to a full depth score.
	depthNormalization = 100_000

	// spreadUndefined is the sentinel spread when either side is empty.
	spreadUndefined = 100.0

	weightDepth         = 0.4
	weightSpread        = 0.4
	weightConcentration = 0.2
)

// LiquidityScorer computes the composite 0-100 book-health score from depth,
// spread, and quantity concentration.
type LiquidityScorer struct{}

// NewLiquidityScorer creates a LiquidityScorer.
func NewLiquidityScorer() *LiquidityScorer {
	return &LiquidityScorer{}
}

// Score computes the liquidity score for one book. Ladders may arrive
// unsorted; best levels are found by scanning, so the caller's slices are
// never reordered. Depth deliberately sums the first ten levels of each
// side in arrival order, not the ten best by price; feeds serve books best
// price first, and the served order is the measured one. Resilience stays
// 0: it needs trade history that is not available here.
func (s *LiquidityScorer) Score(bids, asks []domain.PriceLevel) domain.LiquidityScore {
	depth := (topQuantity(bids) + topQuantity(asks)) / 2

	spread := spreadUndefined
	if len(bids) > 0 && len(asks) > 0 {
		bestBid := bids[0].Price
		for _, lvl := range bids[1:] {
			if lvl.Price > bestBid {
				bestBid = lvl.Price
			}
		}
		bestAsk := asks[0].Price
		for _, lvl := range asks[1:] {
			if lvl.Price < bestAsk {
				bestAsk = lvl.Price
			}
		}
		spread = (bestAsk - bestBid) / bestBid
	}

	concentration := giniConcentration(bids, asks)

	depthScore := math.Min(depth/depthNormalization*100, 100)
	spreadScore := math.Max(100-spread*100, 0)
	concentrationScore := (1 - concentration) * 100
	overall := depthScore*weightDepth + spreadScore*weightSpread + concentrationScore*weightConcentration

	return domain.LiquidityScore{
		Overall:       math.Round(overall*100) / 100,
		Depth:         depth,
		Spread:        spread,
		Concentration: concentration,
		Resilience:    0,
	}
}

// topQuantity sums the quantities of the first min(depthLevels, len) levels
// in arrival order.
func topQuantity(levels []domain.PriceLevel) float64 {
	n := len(levels)
	if n > depthLevels {
		n = depthLevels
	}
	var sum float64
	for _, lvl := range levels[:n] {
		sum += lvl.Quantity
	}
	return sum
}

// giniConcentration is the Gini coefficient over the quantities of all bid
// and ask levels combined. Merging both sides into one distribution is the
// documented modeling choice: the measure deliberately blends book imbalance
// with per-level depth inequality. An empty or zero-quantity book is fully
// degenerate and scores 1.
func giniConcentration(bids, asks []domain.PriceLevel) float64 {
	quantities := make([]float64, 0, len(bids)+len(asks))
	var total float64
	for _, lvl := range bids {
		quantities = append(quantities, lvl.Quantity)
		total += lvl.Quantity
	}
	for _, lvl := range asks {
		quantities = append(quantities, lvl.Quantity)
		total += lvl.Quantity
	}

	n := len(quantities)
	if n == 0 || total == 0 {
		return 1
	}

	sort.Float64s(quantities)
	var gini float64
	for i, q := range quantities {
		gini += float64(2*(i+1)-n-1) * q
	}
	return gini / (float64(n) * total)
}
