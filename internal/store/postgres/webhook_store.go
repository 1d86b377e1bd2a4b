package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// WebhookStore implements domain.WebhookStore using PostgreSQL.
type WebhookStore struct {
	pool *pgxpool.Pool
}

// NewWebhookStore creates a WebhookStore backed by the given pool.
func NewWebhookStore(pool *pgxpool.Pool) *WebhookStore {
	return &WebhookStore{pool: pool}
}

const subscriptionCols = `id, url, secret, events, active, created_at`

// Create registers a new webhook subscription.
func (s *WebhookStore) Create(ctx context.Context, sub domain.WebhookSubscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webhook_subscriptions (id, url, secret, events, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.URL, sub.Secret, sub.Events, sub.Active, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create webhook subscription %s: %w", sub.ID, err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (domain.WebhookSubscription, error) {
	var sub domain.WebhookSubscription
	err := row.Scan(&sub.ID, &sub.URL, &sub.Secret, &sub.Events, &sub.Active, &sub.CreatedAt)
	return sub, err
}

// GetByID retrieves one subscription.
func (s *WebhookStore) GetByID(ctx context.Context, id string) (domain.WebhookSubscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM webhook_subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WebhookSubscription{}, domain.ErrNotFound
		}
		return domain.WebhookSubscription{}, fmt.Errorf("postgres: get webhook subscription %s: %w", id, err)
	}
	return sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]domain.WebhookSubscription, error) {
	var subs []domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ListActive returns every active subscription, for the dispatcher.
func (s *WebhookStore) ListActive(ctx context.Context) ([]domain.WebhookSubscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionCols+` FROM webhook_subscriptions WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active webhook subscriptions: %w", err)
	}
	defer rows.Close()

	subs, err := collectSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active webhook subscriptions: %w", err)
	}
	return subs, nil
}

// List returns subscriptions with pagination, newest first.
func (s *WebhookStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.WebhookSubscription, error) {
	query := `SELECT ` + subscriptionCols + ` FROM webhook_subscriptions ORDER BY created_at DESC`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list webhook subscriptions: %w", err)
	}
	defer rows.Close()

	subs, err := collectSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list webhook subscriptions: %w", err)
	}
	return subs, nil
}

// Delete removes a subscription. Its delivery log cascades.
func (s *WebhookStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete webhook subscription %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LogDelivery records one delivery attempt.
func (s *WebhookStore) LogDelivery(ctx context.Context, d domain.WebhookDelivery) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries (id, subscription_id, event, status_code, error, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.SubscriptionID, d.Event, d.StatusCode, d.Error, d.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: log webhook delivery %s: %w", d.ID, err)
	}
	return nil
}

// ListDeliveries returns the most recent delivery attempts for one
// subscription, newest first.
func (s *WebhookStore) ListDeliveries(ctx context.Context, subscriptionID string, limit int) ([]domain.WebhookDelivery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subscription_id, event, status_code, error, delivered_at
		FROM webhook_deliveries
		WHERE subscription_id = $1
		ORDER BY delivered_at DESC
		LIMIT $2`,
		subscriptionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list webhook deliveries %s: %w", subscriptionID, err)
	}
	defer rows.Close()

	var deliveries []domain.WebhookDelivery
	for rows.Next() {
		var d domain.WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.Event, &d.StatusCode, &d.Error, &d.DeliveredAt); err != nil {
			return nil, fmt.Errorf("postgres: scan webhook delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list webhook deliveries %s: %w", subscriptionID, err)
	}
	return deliveries, nil
}

// Compile-time interface check.
var _ domain.WebhookStore = (*WebhookStore)(nil)
