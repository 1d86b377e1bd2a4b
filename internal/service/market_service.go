// Package service orchestrates the analytics core against stores, caches,
// and the live book feed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// MarketService handles market registration, metadata sync, and
// token-to-markets resolution.
type MarketService struct {
	markets domain.MarketStore
	cache   domain.MarketCache
	logger  *slog.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(markets domain.MarketStore, cache domain.MarketCache, logger *slog.Logger) *MarketService {
	return &MarketService{
		markets: markets,
		cache:   cache,
		logger:  logger,
	}
}

// SyncMarkets upserts a batch of markets and invalidates their cached
// entries so subsequent reads pick up fresh data.
func (s *MarketService) SyncMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	if err := s.markets.UpsertBatch(ctx, markets); err != nil {
		return fmt.Errorf("market_service: upsert batch: %w", err)
	}

	for _, m := range markets {
		if err := s.cache.Invalidate(ctx, m.ID); err != nil {
			s.logger.WarnContext(ctx, "market_service: cache invalidate failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
			// Non-fatal: the cache entry expires on its own.
		}
	}

	s.logger.InfoContext(ctx, "market_service: synced markets",
		slog.Int("count", len(markets)),
	)
	return nil
}

// GetMarket retrieves a market by ID, cache first with store fallback.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.cache.Get(ctx, id)
	if err == nil {
		return m, nil
	}

	m, err = s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get by id %q: %w", id, err)
	}

	if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
		s.logger.WarnContext(ctx, "market_service: cache set failed",
			slog.String("market_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}
	return m, nil
}

// ResolveToken returns the IDs of the active markets trading a token symbol.
// The resolution is cached briefly. A token with no active markets resolves
// to ErrNotFound so callers can report an unknown token instead of an empty
// analytics result.
func (s *MarketService) ResolveToken(ctx context.Context, token string) ([]string, error) {
	if ids, err := s.cache.GetTokenMarkets(ctx, token); err == nil {
		return ids, nil
	}

	markets, err := s.markets.ListByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("market_service: resolve token %q: %w", token, err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("market_service: resolve token %q: %w", token, domain.ErrNotFound)
	}

	ids := make([]string, 0, len(markets))
	for _, m := range markets {
		ids = append(ids, m.ID)
	}

	if cacheErr := s.cache.SetTokenMarkets(ctx, token, ids); cacheErr != nil {
		s.logger.WarnContext(ctx, "market_service: cache token markets failed",
			slog.String("token", token),
			slog.String("error", cacheErr.Error()),
		)
	}
	return ids, nil
}

// ListActive returns active markets from the store.
func (s *MarketService) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.ListActive(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list active: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets.
func (s *MarketService) Count(ctx context.Context) (int64, error) {
	count, err := s.markets.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("market_service: count: %w", err)
	}
	return count, nil
}

// IsUnknownToken reports whether err means a token resolved to no markets.
func IsUnknownToken(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
