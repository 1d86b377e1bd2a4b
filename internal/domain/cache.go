package domain

import (
	"context"
	"time"
)

// BookCache stores live order-book snapshots per market.
type BookCache interface {
	SetSnapshot(ctx context.Context, marketID string, snap OrderbookSnapshot) error
	GetSnapshot(ctx context.Context, marketID string) (OrderbookSnapshot, error)
}

// ResultCache is a short-lived response cache keyed by request parameters.
// TTLs are a few seconds and vary per query type; the analytics core itself
// never touches it.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// MarketCache provides fast market metadata lookups in front of the store.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, id string) (Market, error)
	SetTokenMarkets(ctx context.Context, token string, marketIDs []string) error
	GetTokenMarkets(ctx context.Context, token string) ([]string, error)
	Invalidate(ctx context.Context, id string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage is a single entry read from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub fan-out and durable, ordered streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
