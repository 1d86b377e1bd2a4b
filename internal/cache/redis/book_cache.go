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

// bookTTL bounds how stale a cached book may get; the feed normally
// refreshes entries well before expiry.
const bookTTL = 30 * time.Second

// BookCache implements domain.BookCache by storing each market's snapshot as
// a JSON string.
//
// Key schema:
//
//	book:{marketID} - JSON-encoded OrderbookSnapshot
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func bookKey(marketID string) string { return "book:" + marketID }

// SetSnapshot replaces the cached book for a market.
func (bc *BookCache) SetSnapshot(ctx context.Context, marketID string, snap domain.OrderbookSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s: %w", marketID, err)
	}
	if err := bc.rdb.Set(ctx, bookKey(marketID), data, bookTTL).Err(); err != nil {
		return fmt.Errorf("redis: set book %s: %w", marketID, err)
	}
	return nil
}

// GetSnapshot retrieves the cached book for a market. It returns
// domain.ErrNotFound when no fresh snapshot exists.
func (bc *BookCache) GetSnapshot(ctx context.Context, marketID string) (domain.OrderbookSnapshot, error) {
	data, err := bc.rdb.Get(ctx, bookKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OrderbookSnapshot{}, domain.ErrNotFound
		}
		return domain.OrderbookSnapshot{}, fmt.Errorf("redis: get book %s: %w", marketID, err)
	}

	var snap domain.OrderbookSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("redis: unmarshal book %s: %w", marketID, err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
