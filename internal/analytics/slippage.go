// Package analytics implements the four derived trading signals: fill-price
// slippage, composite liquidity scoring, cross-market arbitrage scanning,
// and multi-market order routing. Every component is a pure synchronous
// function over caller-owned inputs: no I/O, no shared state, no internal
// retries. Concurrent invocation needs no coordination.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// SlippageEngine fills an order against a sorted price ladder and reports
// the realized price versus the best quote.
type SlippageEngine struct{}

// NewSlippageEngine creates a SlippageEngine.
func NewSlippageEngine() *SlippageEngine {
	return &SlippageEngine{}
}

// Calculate walks orderSize through the ladder best-price-first and returns
// the realized fill. The ladder is sorted on a private copy (ascending for a
// buy, descending for a sell); the caller's slice is never mutated.
//
// Errors: domain.ErrInvalidOrderSize when orderSize <= 0,
// domain.ErrEmptyLadder when the ladder has no levels, and
// *domain.InsufficientLiquidityError when the levels exhaust before the
// order is fully consumed. A fill is all-or-error: partial fills never
// produce a result.
func (e *SlippageEngine) Calculate(ladder []domain.PriceLevel, orderSize float64, side domain.Side) (domain.SlippageResult, error) {
	if orderSize <= 0 {
		return domain.SlippageResult{}, fmt.Errorf("%w: %g", domain.ErrInvalidOrderSize, orderSize)
	}
	if len(ladder) == 0 {
		return domain.SlippageResult{}, domain.ErrEmptyLadder
	}

	levels := make([]domain.PriceLevel, len(ladder))
	copy(levels, ladder)
	sort.SliceStable(levels, func(i, j int) bool {
		return side.Better(levels[i].Price, levels[j].Price)
	})

	expected := levels[0].Price
	remaining := orderSize
	var cost, filled float64
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		take := math.Min(remaining, lvl.Quantity)
		cost += take * lvl.Price
		filled += take
		remaining -= take
	}
	if remaining > 0 {
		return domain.SlippageResult{}, &domain.InsufficientLiquidityError{
			Filled:    filled,
			Requested: orderSize,
		}
	}

	actual := cost / filled
	slippage := math.Abs((actual-expected)/expected) * 100

	// TotalCost is the literal per-level sum, not actual*orderSize, so the
	// averaged price does not reintroduce rounding error.
	return domain.SlippageResult{
		ExpectedPrice:   expected,
		ActualPrice:     actual,
		SlippagePercent: slippage,
		PriceImpact:     slippage,
		TotalCost:       cost,
	}, nil
}

// CalculateLadder computes slippage independently for each requested size.
// A size that cannot be filled resolves to a nil Slippage in its slot; the
// remaining sizes still compute normally. CalculateLadder itself never
// returns an error.
func (e *SlippageEngine) CalculateLadder(ladder []domain.PriceLevel, side domain.Side, sizes []float64) []domain.SlippageLadderEntry {
	entries := make([]domain.SlippageLadderEntry, 0, len(sizes))
	for _, size := range sizes {
		entry := domain.SlippageLadderEntry{OrderSize: size}
		if res, err := e.Calculate(ladder, size, side); err == nil {
			entry.Slippage = &res
		}
		entries = append(entries, entry)
	}
	return entries
}
