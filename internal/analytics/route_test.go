package analytics

import (
	"errors"
	"testing"

	"github.com/liquidlens/liquidlens/internal/domain"
)

func testBooks() []domain.MarketDepth {
	return []domain.MarketDepth{
		{MarketID: "mkt-rich", Ladder: []domain.PriceLevel{{Price: 101, Quantity: 100}}},
		{MarketID: "mkt-cheap", Ladder: []domain.PriceLevel{{Price: 100, Quantity: 60}}},
	}
}

func TestRouteOptimizerSplitsAcrossMarkets(t *testing.T) {
	opt := NewRouteOptimizer(NewSlippageEngine())
	route, err := opt.FindOptimalRoute("WETH", 100, domain.SideBuy, testBooks())
	if err != nil {
		t.Fatalf("FindOptimalRoute: %v", err)
	}

	if len(route.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(route.Allocations))
	}
	first, second := route.Allocations[0], route.Allocations[1]
	if first.MarketID != "mkt-cheap" || !almostEqual(first.Amount, 60) {
		t.Errorf("first allocation = %s %g, want mkt-cheap 60", first.MarketID, first.Amount)
	}
	if second.MarketID != "mkt-rich" || !almostEqual(second.Amount, 40) {
		t.Errorf("second allocation = %s %g, want mkt-rich 40", second.MarketID, second.Amount)
	}
	if !almostEqual(route.TotalAmount, 100) {
		t.Errorf("total amount = %g, want 100", route.TotalAmount)
	}
	// 60 @ 100 plus 40 @ 101.
	if !almostEqual(route.AveragePrice, 100.4) {
		t.Errorf("average price = %g, want 100.4", route.AveragePrice)
	}
	if route.Savings < 0 {
		t.Errorf("savings = %g, want non-negative", route.Savings)
	}
}

func TestRouteOptimizerSellPrefersHighestBid(t *testing.T) {
	books := []domain.MarketDepth{
		{MarketID: "low", Ladder: []domain.PriceLevel{{Price: 99, Quantity: 100}}},
		{MarketID: "high", Ladder: []domain.PriceLevel{{Price: 100, Quantity: 100}}},
	}
	opt := NewRouteOptimizer(NewSlippageEngine())
	route, err := opt.FindOptimalRoute("WETH", 50, domain.SideSell, books)
	if err != nil {
		t.Fatalf("FindOptimalRoute: %v", err)
	}
	if len(route.Allocations) != 1 || route.Allocations[0].MarketID != "high" {
		t.Fatalf("allocations = %+v, want single fill on high", route.Allocations)
	}
}

func TestRouteOptimizerSkipsEmptyLadders(t *testing.T) {
	books := append([]domain.MarketDepth{{MarketID: "ghost"}}, testBooks()...)
	opt := NewRouteOptimizer(NewSlippageEngine())
	route, err := opt.FindOptimalRoute("WETH", 100, domain.SideBuy, books)
	if err != nil {
		t.Fatalf("FindOptimalRoute: %v", err)
	}
	for _, a := range route.Allocations {
		if a.MarketID == "ghost" {
			t.Fatal("empty ladder received an allocation")
		}
	}
}

func TestRouteOptimizerSkipsMarketWhoseFillFails(t *testing.T) {
	// The fragile market's quantities sum to a hair more in arrival order
	// (0.1+0.2+0.3) than the walk consumes in price order (0.3+0.2+0.1),
	// so its fill fails with a residue. The market must be skipped without
	// consuming any of the order.
	books := []domain.MarketDepth{
		{MarketID: "fragile", Ladder: []domain.PriceLevel{
			{Price: 103, Quantity: 0.1},
			{Price: 102, Quantity: 0.2},
			{Price: 101, Quantity: 0.3},
		}},
		{MarketID: "clean", Ladder: []domain.PriceLevel{{Price: 105, Quantity: 100}}},
	}
	opt := NewRouteOptimizer(NewSlippageEngine())
	route, err := opt.FindOptimalRoute("WETH", 10, domain.SideBuy, books)
	if err != nil {
		t.Fatalf("FindOptimalRoute: %v", err)
	}
	if len(route.Allocations) != 1 {
		t.Fatalf("allocations = %+v, want the clean market only", route.Allocations)
	}
	a := route.Allocations[0]
	if a.MarketID != "clean" || !almostEqual(a.Amount, 10) {
		t.Errorf("allocation = %s %g, want clean 10", a.MarketID, a.Amount)
	}
}

func TestRouteOptimizerSavingsZeroWhenBestMarketTooSmall(t *testing.T) {
	// mkt-cheap holds 60 of the 100 requested, so the single-market
	// benchmark cannot be computed and savings pins at zero.
	opt := NewRouteOptimizer(NewSlippageEngine())
	route, err := opt.FindOptimalRoute("WETH", 100, domain.SideBuy, testBooks())
	if err != nil {
		t.Fatalf("FindOptimalRoute: %v", err)
	}
	if route.Savings != 0 {
		t.Errorf("savings = %g, want 0 without a single-market benchmark", route.Savings)
	}
}

func TestRouteOptimizerErrors(t *testing.T) {
	opt := NewRouteOptimizer(NewSlippageEngine())

	if _, err := opt.FindOptimalRoute("WETH", 0, domain.SideBuy, testBooks()); !errors.Is(err, domain.ErrInvalidOrderSize) {
		t.Errorf("zero amount: got %v, want ErrInvalidOrderSize", err)
	}
	if _, err := opt.FindOptimalRoute("WETH", 10, domain.SideBuy, nil); !errors.Is(err, domain.ErrEmptyLadder) {
		t.Errorf("no books: got %v, want ErrEmptyLadder", err)
	}

	_, err := opt.FindOptimalRoute("WETH", 200, domain.SideBuy, testBooks())
	var insufficient *domain.InsufficientAggregateLiquidityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("oversized route: got %v, want InsufficientAggregateLiquidityError", err)
	}
	if !almostEqual(insufficient.Missing, 40) {
		t.Errorf("missing = %g, want 40", insufficient.Missing)
	}
}
