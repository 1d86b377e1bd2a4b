package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/liquidlens/liquidlens/internal/domain"
)

type fakeSource struct {
	books map[string]domain.OrderbookSnapshot
}

func (f *fakeSource) GetSnapshot(_ context.Context, marketID string) (domain.OrderbookSnapshot, error) {
	snap, ok := f.books[marketID]
	if !ok {
		return domain.OrderbookSnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectorDropsFailedMarkets(t *testing.T) {
	source := &fakeSource{books: map[string]domain.OrderbookSnapshot{
		"a": {MarketID: "a", Token: "WETH", Bids: []domain.PriceLevel{{Price: 99, Quantity: 10}}},
		"b": {MarketID: "b", Token: "WETH", Asks: []domain.PriceLevel{{Price: 101, Quantity: 10}}},
	}}
	c := New(source, 4, discardLogger())

	books, err := c.Snapshots(context.Background(), []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("books = %d, want 2 with the failed market dropped", len(books))
	}
	ids := []string{books[0].MarketID, books[1].MarketID}
	sort.Strings(ids)
	if ids[0] != "a" || ids[1] != "b" {
		t.Errorf("markets = %v, want [a b]", ids)
	}
}

func TestCollectorSummaries(t *testing.T) {
	source := &fakeSource{books: map[string]domain.OrderbookSnapshot{
		"a": {
			MarketID: "a",
			Token:    "WETH",
			Bids:     []domain.PriceLevel{{Price: 98, Quantity: 5}, {Price: 99, Quantity: 10}},
			Asks:     []domain.PriceLevel{{Price: 101, Quantity: 7}, {Price: 102, Quantity: 3}},
		},
	}}
	c := New(source, 1, discardLogger())

	summaries, err := c.Summaries(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.BestBid != 99 || s.BestAsk != 101 {
		t.Errorf("top of book = %g/%g, want 99/101", s.BestBid, s.BestAsk)
	}
	if s.BidQuantity != 10 || s.AskQuantity != 7 {
		t.Errorf("top quantities = %g/%g, want 10/7", s.BidQuantity, s.AskQuantity)
	}
}

func TestCollectorDepthsPicksLadderForSide(t *testing.T) {
	source := &fakeSource{books: map[string]domain.OrderbookSnapshot{
		"a": {
			MarketID: "a",
			Bids:     []domain.PriceLevel{{Price: 99, Quantity: 10}},
			Asks:     []domain.PriceLevel{{Price: 101, Quantity: 20}},
		},
	}}
	c := New(source, 1, discardLogger())

	depths, err := c.Depths(context.Background(), []string{"a"}, domain.SideBuy)
	if err != nil {
		t.Fatalf("Depths: %v", err)
	}
	// A buy consumes asks.
	if len(depths) != 1 || len(depths[0].Ladder) != 1 || depths[0].Ladder[0].Price != 101 {
		t.Fatalf("depths = %+v, want the ask ladder", depths)
	}
}

func TestCollectorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{books: map[string]domain.OrderbookSnapshot{}}
	c := New(source, 2, discardLogger())
	if _, err := c.Snapshots(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context: got %v, want context.Canceled", err)
	}
}
