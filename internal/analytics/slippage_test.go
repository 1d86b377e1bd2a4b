package analytics

import (
	"errors"
	"math"
	"testing"

	"github.com/liquidlens/liquidlens/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSlippageEngineCalculate(t *testing.T) {
	ladder := []domain.PriceLevel{
		{Price: 100, Quantity: 50},
		{Price: 101, Quantity: 50},
		{Price: 102, Quantity: 100},
	}

	tests := []struct {
		name         string
		orderSize    float64
		wantExpected float64
		wantActual   float64
		wantSlippage float64
		wantCost     float64
	}{
		{
			name:         "crosses two levels",
			orderSize:    100,
			wantExpected: 100,
			wantActual:   100.5,
			wantSlippage: 0.5,
			wantCost:     10050,
		},
		{
			name:         "fits in best level",
			orderSize:    10,
			wantExpected: 100,
			wantActual:   100,
			wantSlippage: 0,
			wantCost:     1000,
		},
	}

	engine := NewSlippageEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Calculate(ladder, tt.orderSize, domain.SideBuy)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if !almostEqual(res.ExpectedPrice, tt.wantExpected) {
				t.Errorf("expected price = %g, want %g", res.ExpectedPrice, tt.wantExpected)
			}
			if !almostEqual(res.ActualPrice, tt.wantActual) {
				t.Errorf("actual price = %g, want %g", res.ActualPrice, tt.wantActual)
			}
			if !almostEqual(res.SlippagePercent, tt.wantSlippage) {
				t.Errorf("slippage = %g, want %g", res.SlippagePercent, tt.wantSlippage)
			}
			if !almostEqual(res.TotalCost, tt.wantCost) {
				t.Errorf("total cost = %g, want %g", res.TotalCost, tt.wantCost)
			}
		})
	}
}

func TestSlippageEngineSellWalksBidsDown(t *testing.T) {
	// Sell fills consume the highest bids first.
	ladder := []domain.PriceLevel{
		{Price: 99, Quantity: 50},
		{Price: 100, Quantity: 50},
	}
	engine := NewSlippageEngine()
	res, err := engine.Calculate(ladder, 75, domain.SideSell)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !almostEqual(res.ExpectedPrice, 100) {
		t.Errorf("expected price = %g, want 100", res.ExpectedPrice)
	}
	// 50 @ 100 plus 25 @ 99.
	wantActual := (50*100 + 25*99) / 75.0
	if !almostEqual(res.ActualPrice, wantActual) {
		t.Errorf("actual price = %g, want %g", res.ActualPrice, wantActual)
	}
}

func TestSlippageEngineDoesNotMutateLadder(t *testing.T) {
	ladder := []domain.PriceLevel{
		{Price: 102, Quantity: 10},
		{Price: 100, Quantity: 10},
		{Price: 101, Quantity: 10},
	}
	engine := NewSlippageEngine()
	if _, err := engine.Calculate(ladder, 5, domain.SideBuy); err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []float64{102, 100, 101}
	for i, lvl := range ladder {
		if lvl.Price != want[i] {
			t.Fatalf("ladder reordered: level %d price = %g, want %g", i, lvl.Price, want[i])
		}
	}
}

func TestSlippageEngineErrors(t *testing.T) {
	ladder := []domain.PriceLevel{{Price: 100, Quantity: 10}}
	engine := NewSlippageEngine()

	if _, err := engine.Calculate(ladder, 0, domain.SideBuy); !errors.Is(err, domain.ErrInvalidOrderSize) {
		t.Errorf("zero size: got %v, want ErrInvalidOrderSize", err)
	}
	if _, err := engine.Calculate(ladder, -5, domain.SideBuy); !errors.Is(err, domain.ErrInvalidOrderSize) {
		t.Errorf("negative size: got %v, want ErrInvalidOrderSize", err)
	}
	if _, err := engine.Calculate(nil, 10, domain.SideBuy); !errors.Is(err, domain.ErrEmptyLadder) {
		t.Errorf("empty ladder: got %v, want ErrEmptyLadder", err)
	}

	_, err := engine.Calculate(ladder, 25, domain.SideBuy)
	var insufficient *domain.InsufficientLiquidityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("oversized order: got %v, want InsufficientLiquidityError", err)
	}
	if !almostEqual(insufficient.Filled, 10) || !almostEqual(insufficient.Requested, 25) {
		t.Errorf("insufficient liquidity: filled %g requested %g, want 10 and 25", insufficient.Filled, insufficient.Requested)
	}
}

func TestSlippageEngineCalculateLadder(t *testing.T) {
	ladder := []domain.PriceLevel{
		{Price: 100, Quantity: 10},
		{Price: 101, Quantity: 10},
	}
	engine := NewSlippageEngine()
	entries := engine.CalculateLadder(ladder, domain.SideBuy, []float64{5, 15, 25})
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Slippage == nil || !almostEqual(entries[0].Slippage.ActualPrice, 100) {
		t.Errorf("size 5: got %+v, want actual price 100", entries[0].Slippage)
	}
	if entries[1].Slippage == nil {
		t.Fatal("size 15: got nil, want a result")
	}
	wantActual := (10*100 + 5*101) / 15.0
	if !almostEqual(entries[1].Slippage.ActualPrice, wantActual) {
		t.Errorf("size 15: actual price = %g, want %g", entries[1].Slippage.ActualPrice, wantActual)
	}
	if entries[2].Slippage != nil {
		t.Errorf("size 25 exceeds liquidity: got %+v, want nil", entries[2].Slippage)
	}
	if !almostEqual(entries[2].OrderSize, 25) {
		t.Errorf("size 25 entry keeps its order size, got %g", entries[2].OrderSize)
	}
}
