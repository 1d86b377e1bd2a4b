package analytics

import (
	"sort"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// feeRate is the flat per-fill fee applied to both legs of a round trip.
const feeRate = 0.002

// ArbitrageScanner finds cross-market price dislocations on the same token.
type ArbitrageScanner struct {
	minSpreadPercent float64
}

// NewArbitrageScanner creates a scanner that reports only opportunities whose
// raw spread percentage meets minSpreadPercent.
func NewArbitrageScanner(minSpreadPercent float64) *ArbitrageScanner {
	return &ArbitrageScanner{minSpreadPercent: minSpreadPercent}
}

// FindOpportunities compares every pair of summaries that share a token, in
// both trade directions, and returns the profitable dislocations sorted by
// estimated profit, largest first. Summaries with a missing best bid or ask
// on the relevant side are skipped.
func (s *ArbitrageScanner) FindOpportunities(summaries []domain.MarketSummary) []domain.ArbitrageOpportunity {
	byToken := make(map[string][]domain.MarketSummary)
	for _, sum := range summaries {
		byToken[sum.Token] = append(byToken[sum.Token], sum)
	}

	var opps []domain.ArbitrageOpportunity
	for token, group := range byToken {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if opp, ok := s.check(token, group[i], group[j]); ok {
					opps = append(opps, opp)
				}
				if opp, ok := s.check(token, group[j], group[i]); ok {
					opps = append(opps, opp)
				}
			}
		}
	}

	sort.SliceStable(opps, func(a, b int) bool {
		return opps[a].EstimatedProfit > opps[b].EstimatedProfit
	})
	return opps
}

// check evaluates buying at buy's ask and selling at sell's bid. Profit is
// net of the round-trip fee on both leg prices.
func (s *ArbitrageScanner) check(token string, buy, sell domain.MarketSummary) (domain.ArbitrageOpportunity, bool) {
	if buy.BestAsk <= 0 || sell.BestBid <= 0 {
		return domain.ArbitrageOpportunity{}, false
	}

	spread := sell.BestBid - buy.BestAsk
	spreadPercent := spread / buy.BestAsk * 100
	if spreadPercent < s.minSpreadPercent {
		return domain.ArbitrageOpportunity{}, false
	}

	size := buy.AskQuantity
	if sell.BidQuantity < size {
		size = sell.BidQuantity
	}
	profitPerUnit := spread - feeRate*(buy.BestAsk+sell.BestBid)
	profit := profitPerUnit * size
	if profit <= 0 {
		return domain.ArbitrageOpportunity{}, false
	}

	return domain.ArbitrageOpportunity{
		BuyMarket:         buy.MarketID,
		SellMarket:        sell.MarketID,
		BuyPrice:          buy.BestAsk,
		SellPrice:         sell.BestBid,
		Spread:            spread,
		SpreadPercent:     spreadPercent,
		MaxProfitableSize: size,
		EstimatedProfit:   profit,
		Token:             token,
	}, true
}
