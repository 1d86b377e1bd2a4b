package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liquidlens/liquidlens/internal/domain"
)

const (
	marketTTL      = 5 * time.Minute
	tokenMarketTTL = time.Minute
)

// MarketCache implements domain.MarketCache with JSON-serialized market
// metadata and a token-to-markets index used by the analytics services to
// resolve a token symbol into the markets that trade it.
//
// Key schema:
//
//	market:{id}           - JSON-encoded Market
//	market:token:{symbol} - JSON-encoded []string of market IDs
type MarketCache struct {
	rdb *redis.Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{rdb: c.Underlying()}
}

func marketKey(id string) string          { return "market:" + id }
func tokenMarketsKey(token string) string { return "market:token:" + token }

// Set stores one market's metadata.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market %s: %w", market.ID, err)
	}
	if err := mc.rdb.Set(ctx, marketKey(market.ID), data, marketTTL).Err(); err != nil {
		return fmt.Errorf("redis: set market %s: %w", market.ID, err)
	}
	return nil
}

// Get retrieves a market by ID. It returns domain.ErrNotFound when the key
// does not exist.
func (mc *MarketCache) Get(ctx context.Context, id string) (domain.Market, error) {
	data, err := mc.rdb.Get(ctx, marketKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", id, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", id, err)
	}
	return market, nil
}

// SetTokenMarkets caches the resolved market IDs for a token symbol. The
// short TTL keeps newly listed markets from being invisible for long.
func (mc *MarketCache) SetTokenMarkets(ctx context.Context, token string, marketIDs []string) error {
	data, err := json.Marshal(marketIDs)
	if err != nil {
		return fmt.Errorf("redis: marshal token markets %s: %w", token, err)
	}
	if err := mc.rdb.Set(ctx, tokenMarketsKey(token), data, tokenMarketTTL).Err(); err != nil {
		return fmt.Errorf("redis: set token markets %s: %w", token, err)
	}
	return nil
}

// GetTokenMarkets returns the cached market IDs for a token symbol, or
// domain.ErrNotFound on a miss.
func (mc *MarketCache) GetTokenMarkets(ctx context.Context, token string) ([]string, error) {
	data, err := mc.rdb.Get(ctx, tokenMarketsKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get token markets %s: %w", token, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("redis: unmarshal token markets %s: %w", token, err)
	}
	return ids, nil
}

// Invalidate removes a market and its token index entry. The token index is
// dropped as a whole because membership may have changed.
func (mc *MarketCache) Invalidate(ctx context.Context, id string) error {
	market, err := mc.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("redis: invalidate market %s: %w", id, err)
	}

	pipe := mc.rdb.TxPipeline()
	pipe.Del(ctx, marketKey(id))
	if err == nil && market.Token != "" {
		pipe.Del(ctx, tokenMarketsKey(market.Token))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate market %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
