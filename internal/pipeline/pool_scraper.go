// Package pipeline runs the background loops: pool discovery, token scans,
// and cold-storage archival.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/platform/indexer"
)

// MarketSyncer persists a batch of markets.
type MarketSyncer interface {
	SyncMarkets(ctx context.Context, markets []domain.Market) error
}

// PoolFetcher retrieves pools from an indexer endpoint.
type PoolFetcher interface {
	FetchPools(ctx context.Context, minReserveUSD float64, first int) ([]indexer.Pool, error)
}

// PoolScraper discovers venue pools through the indexer and registers them
// as markets.
type PoolScraper struct {
	syncer     MarketSyncer
	fetcher    PoolFetcher
	minReserve float64
	pageSize   int
	logger     *slog.Logger
}

// NewPoolScraper creates a PoolScraper. Pools below minReserve USD are not
// registered.
func NewPoolScraper(syncer MarketSyncer, fetcher PoolFetcher, minReserve float64, logger *slog.Logger) *PoolScraper {
	return &PoolScraper{
		syncer:     syncer,
		fetcher:    fetcher,
		minReserve: minReserve,
		pageSize:   100,
		logger:     logger.With(slog.String("component", "pool_scraper")),
	}
}

// Run executes a single discovery pass.
func (s *PoolScraper) Run(ctx context.Context) error {
	pools, err := s.fetcher.FetchPools(ctx, s.minReserve, s.pageSize)
	if err != nil {
		return fmt.Errorf("pipeline: fetch pools: %w", err)
	}
	if len(pools) == 0 {
		s.logger.Info("no pools above reserve threshold")
		return nil
	}

	now := time.Now().UTC()
	markets := make([]domain.Market, 0, len(pools))
	for _, p := range pools {
		markets = append(markets, domain.Market{
			ID:          p.Address,
			Venue:       p.Venue,
			Token:       p.BaseToken,
			Quote:       p.QuoteToken,
			PoolAddress: p.Address,
			Active:      true,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   now,
		})
	}

	if err := s.syncer.SyncMarkets(ctx, markets); err != nil {
		return fmt.Errorf("pipeline: sync %d markets: %w", len(markets), err)
	}

	s.logger.Info("pool scrape complete", slog.Int("markets", len(markets)))
	return nil
}

// RunLoop runs discovery on a repeating interval until ctx is cancelled. A
// failed pass is logged and retried on the next tick.
func (s *PoolScraper) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.Run(ctx); err != nil {
		s.logger.Error("pool scrape failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("pool scraper loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("pool scrape failed", slog.String("error", err.Error()))
			}
		}
	}
}
