package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists market metadata.
type MarketStore interface {
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	ListByToken(ctx context.Context, token string) ([]Market, error)
	ListActive(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists arbitrage scan history.
type OpportunityStore interface {
	InsertBatch(ctx context.Context, opps []StoredOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]StoredOpportunity, error)
	ListBefore(ctx context.Context, before time.Time) ([]StoredOpportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// WebhookSubscription is a registered webhook endpoint. Secret is the
// subscriber-supplied signing secret; events filters which event types are
// delivered (empty means all).
type WebhookSubscription struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebhookDelivery is one delivery attempt logged for a subscription.
type WebhookDelivery struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscriptionId"`
	Event          string    `json:"event"`
	StatusCode     int       `json:"statusCode"`
	Error          string    `json:"error,omitempty"`
	DeliveredAt    time.Time `json:"deliveredAt"`
}

// WebhookStore persists webhook subscriptions and their delivery log.
type WebhookStore interface {
	Create(ctx context.Context, sub WebhookSubscription) error
	GetByID(ctx context.Context, id string) (WebhookSubscription, error)
	ListActive(ctx context.Context) ([]WebhookSubscription, error)
	List(ctx context.Context, opts ListOpts) ([]WebhookSubscription, error)
	Delete(ctx context.Context, id string) error
	LogDelivery(ctx context.Context, d WebhookDelivery) error
	ListDeliveries(ctx context.Context, subscriptionID string, limit int) ([]WebhookDelivery, error)
}
