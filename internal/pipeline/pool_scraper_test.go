package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/platform/indexer"
)

type fakeSyncer struct {
	synced []domain.Market
	err    error
}

func (s *fakeSyncer) SyncMarkets(_ context.Context, markets []domain.Market) error {
	if s.err != nil {
		return s.err
	}
	s.synced = append(s.synced, markets...)
	return nil
}

type fakeFetcher struct {
	pools []indexer.Pool
	err   error
}

func (f *fakeFetcher) FetchPools(_ context.Context, _ float64, _ int) ([]indexer.Pool, error) {
	return f.pools, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolScraperRun(t *testing.T) {
	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		pools: []indexer.Pool{
			{Address: "0xAbC", Venue: "uniswap-v3", BaseToken: "WETH", QuoteToken: "USDC", ReserveUSD: 1_500_000, CreatedAt: created},
			{Address: "0xDeF", Venue: "uniswap-v3", BaseToken: "WBTC", QuoteToken: "USDC", ReserveUSD: 900_000, CreatedAt: created},
		},
	}
	syncer := &fakeSyncer{}
	scraper := NewPoolScraper(syncer, fetcher, 100_000, testLogger())

	if err := scraper.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(syncer.synced) != 2 {
		t.Fatalf("synced %d markets, want 2", len(syncer.synced))
	}
	m := syncer.synced[0]
	if m.ID != "0xAbC" || m.PoolAddress != "0xAbC" {
		t.Errorf("market ID/pool = %s/%s, want 0xAbC", m.ID, m.PoolAddress)
	}
	if m.Token != "WETH" || m.Quote != "USDC" {
		t.Errorf("token pair = %s/%s, want WETH/USDC", m.Token, m.Quote)
	}
	if !m.Active {
		t.Error("scraped market should be active")
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, created)
	}
}

func TestPoolScraperRunNoPools(t *testing.T) {
	syncer := &fakeSyncer{}
	scraper := NewPoolScraper(syncer, &fakeFetcher{}, 100_000, testLogger())

	if err := scraper.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(syncer.synced) != 0 {
		t.Fatalf("synced %d markets, want 0", len(syncer.synced))
	}
}

func TestPoolScraperRunFetchError(t *testing.T) {
	fetchErr := errors.New("indexer unavailable")
	scraper := NewPoolScraper(&fakeSyncer{}, &fakeFetcher{err: fetchErr}, 100_000, testLogger())

	err := scraper.Run(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Run error = %v, want wrapped %v", err, fetchErr)
	}
}
