package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// RouteOptimizer splits a large order across markets to minimize total cost.
type RouteOptimizer struct {
	engine *SlippageEngine
}

// NewRouteOptimizer creates an optimizer backed by the given engine.
func NewRouteOptimizer(engine *SlippageEngine) *RouteOptimizer {
	return &RouteOptimizer{engine: engine}
}

// candidate is a market ladder annotated with its headline price and total
// available quantity.
type candidate struct {
	marketID     string
	ladder       []domain.PriceLevel
	basePrice    float64
	maxLiquidity float64
}

// FindOptimalRoute greedily allocates totalAmount across the given books,
// best headline price first. Books with empty ladders are ignored. A market
// whose fill unexpectedly fails is skipped without consuming any of the
// remaining amount.
func (o *RouteOptimizer) FindOptimalRoute(token string, totalAmount float64, side domain.Side, books []domain.MarketDepth) (domain.Route, error) {
	if totalAmount <= 0 {
		return domain.Route{}, fmt.Errorf("analytics: route %s: %g: %w", token, totalAmount, domain.ErrInvalidOrderSize)
	}

	candidates := make([]candidate, 0, len(books))
	for _, book := range books {
		if len(book.Ladder) == 0 {
			continue
		}
		var max float64
		for _, lvl := range book.Ladder {
			max += lvl.Quantity
		}
		candidates = append(candidates, candidate{
			marketID:     book.MarketID,
			ladder:       book.Ladder,
			basePrice:    book.Ladder[0].Price,
			maxLiquidity: max,
		})
	}
	if len(candidates) == 0 {
		return domain.Route{}, fmt.Errorf("analytics: route %s: %w", token, domain.ErrEmptyLadder)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return side.Better(candidates[a].basePrice, candidates[b].basePrice)
	})

	var (
		allocations []domain.RouteAllocation
		remaining   = totalAmount
	)
	for _, c := range candidates {
		if remaining <= 0 {
			break
		}
		amount := math.Min(remaining, c.maxLiquidity)
		if amount <= 0 {
			continue
		}
		res, err := o.engine.Calculate(c.ladder, amount, side)
		if err != nil {
			continue
		}
		allocations = append(allocations, domain.RouteAllocation{
			MarketID:        c.marketID,
			Amount:          amount,
			Price:           res.ActualPrice,
			SlippagePercent: res.SlippagePercent,
		})
		remaining -= amount
	}
	if remaining > 0 {
		return domain.Route{}, &domain.InsufficientAggregateLiquidityError{Missing: remaining}
	}

	var totalCost, weightedSlippage float64
	for _, a := range allocations {
		totalCost += a.Amount * a.Price
		weightedSlippage += a.SlippagePercent * (a.Amount / totalAmount)
	}
	averagePrice := totalCost / totalAmount

	// Benchmark: the whole order filled on the single best candidate. Falls
	// back to the routed cost when no single market can hold it, which pins
	// savings at zero.
	singleMarketCost := totalCost
	if res, err := o.engine.Calculate(candidates[0].ladder, totalAmount, side); err == nil {
		singleMarketCost = res.TotalCost
	}

	return domain.Route{
		Allocations:   allocations,
		TotalAmount:   totalAmount,
		AveragePrice:  averagePrice,
		TotalSlippage: weightedSlippage,
		Savings:       math.Max(0, singleMarketCost-totalCost),
	}, nil
}
