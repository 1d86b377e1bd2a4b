package analytics

import (
	"testing"

	"github.com/liquidlens/liquidlens/internal/domain"
)

func TestArbitrageScannerFindsDislocation(t *testing.T) {
	summaries := []domain.MarketSummary{
		{MarketID: "mkt-a", Token: "WETH", BestBid: 15.20, BestAsk: 15.25, BidQuantity: 120, AskQuantity: 100},
		{MarketID: "mkt-b", Token: "WETH", BestBid: 15.35, BestAsk: 15.40, BidQuantity: 80, AskQuantity: 90},
	}

	scanner := NewArbitrageScanner(0.5)
	opps := scanner.FindOpportunities(summaries)
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want 1", len(opps))
	}

	opp := opps[0]
	if opp.BuyMarket != "mkt-a" || opp.SellMarket != "mkt-b" {
		t.Errorf("direction = buy %s sell %s, want buy mkt-a sell mkt-b", opp.BuyMarket, opp.SellMarket)
	}
	if !almostEqual(opp.Spread, 0.10) {
		t.Errorf("spread = %g, want 0.10", opp.Spread)
	}
	if !almostEqual(opp.SpreadPercent, 0.10/15.25*100) {
		t.Errorf("spread percent = %g, want %g", opp.SpreadPercent, 0.10/15.25*100)
	}
	if !almostEqual(opp.MaxProfitableSize, 80) {
		t.Errorf("size = %g, want 80 (capped by sell-side bids)", opp.MaxProfitableSize)
	}
	wantProfit := (0.10 - 0.002*(15.25+15.35)) * 80
	if !almostEqual(opp.EstimatedProfit, wantProfit) {
		t.Errorf("profit = %g, want %g", opp.EstimatedProfit, wantProfit)
	}
	if opp.Token != "WETH" {
		t.Errorf("token = %q, want WETH", opp.Token)
	}
}

func TestArbitrageScannerIgnoresCrossTokenPairs(t *testing.T) {
	summaries := []domain.MarketSummary{
		{MarketID: "mkt-a", Token: "WETH", BestBid: 10.00, BestAsk: 10.05, BidQuantity: 50, AskQuantity: 50},
		{MarketID: "mkt-b", Token: "WBTC", BestBid: 20.00, BestAsk: 20.05, BidQuantity: 50, AskQuantity: 50},
	}
	scanner := NewArbitrageScanner(0.1)
	if opps := scanner.FindOpportunities(summaries); len(opps) != 0 {
		t.Fatalf("opportunities across tokens = %d, want 0", len(opps))
	}
}

func TestArbitrageScannerFeeKillsThinSpread(t *testing.T) {
	// 0.45% raw spread clears a 0.4% threshold but not the round-trip fee.
	summaries := []domain.MarketSummary{
		{MarketID: "mkt-a", Token: "WETH", BestBid: 99.90, BestAsk: 100.00, BidQuantity: 50, AskQuantity: 50},
		{MarketID: "mkt-b", Token: "WETH", BestBid: 100.45, BestAsk: 100.55, BidQuantity: 50, AskQuantity: 50},
	}
	scanner := NewArbitrageScanner(0.4)
	if opps := scanner.FindOpportunities(summaries); len(opps) != 0 {
		t.Fatalf("fee-unprofitable opportunities = %d, want 0", len(opps))
	}
}

func TestArbitrageScannerSortsByProfit(t *testing.T) {
	summaries := []domain.MarketSummary{
		{MarketID: "a", Token: "WETH", BestBid: 9.90, BestAsk: 10.00, BidQuantity: 100, AskQuantity: 100},
		{MarketID: "b", Token: "WETH", BestBid: 10.50, BestAsk: 10.60, BidQuantity: 100, AskQuantity: 100},
		{MarketID: "c", Token: "WETH", BestBid: 11.00, BestAsk: 11.10, BidQuantity: 100, AskQuantity: 100},
	}
	scanner := NewArbitrageScanner(0.5)
	opps := scanner.FindOpportunities(summaries)
	if len(opps) < 2 {
		t.Fatalf("opportunities = %d, want at least 2", len(opps))
	}
	for i := 1; i < len(opps); i++ {
		if opps[i].EstimatedProfit > opps[i-1].EstimatedProfit {
			t.Fatalf("opportunities not sorted: %g after %g", opps[i].EstimatedProfit, opps[i-1].EstimatedProfit)
		}
	}
	if opps[0].BuyMarket != "a" || opps[0].SellMarket != "c" {
		t.Errorf("top opportunity = buy %s sell %s, want buy a sell c", opps[0].BuyMarket, opps[0].SellMarket)
	}
}

func TestArbitrageScannerSkipsEmptySides(t *testing.T) {
	summaries := []domain.MarketSummary{
		{MarketID: "a", Token: "WETH", BestBid: 0, BestAsk: 0},
		{MarketID: "b", Token: "WETH", BestBid: 10.50, BestAsk: 10.60, BidQuantity: 100, AskQuantity: 100},
	}
	scanner := NewArbitrageScanner(0.1)
	if opps := scanner.FindOpportunities(summaries); len(opps) != 0 {
		t.Fatalf("opportunities with empty sides = %d, want 0", len(opps))
	}
}
