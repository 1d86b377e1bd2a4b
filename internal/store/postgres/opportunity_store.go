package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, token, buy_market, sell_market, buy_price, sell_price,
	spread, spread_percent, max_profitable_size, estimated_profit, detected_at`

// InsertBatch persists one scan's worth of opportunities in a single batch.
func (s *OpportunityStore) InsertBatch(ctx context.Context, opps []domain.StoredOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	const query = `
		INSERT INTO opportunities (
			id, token, buy_market, sell_market, buy_price, sell_price,
			spread, spread_percent, max_profitable_size, estimated_profit, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)`

	batch := &pgx.Batch{}
	for _, o := range opps {
		batch.Queue(query,
			o.ID, o.Token, o.BuyMarket, o.SellMarket, o.BuyPrice, o.SellPrice,
			o.Spread, o.SpreadPercent, o.MaxProfitableSize, o.EstimatedProfit, o.DetectedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range opps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert opportunity batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanOpportunity(row pgx.Row) (domain.StoredOpportunity, error) {
	var o domain.StoredOpportunity
	err := row.Scan(
		&o.ID, &o.Token, &o.BuyMarket, &o.SellMarket, &o.BuyPrice, &o.SellPrice,
		&o.Spread, &o.SpreadPercent, &o.MaxProfitableSize, &o.EstimatedProfit, &o.DetectedAt,
	)
	return o, err
}

func collectOpportunities(rows pgx.Rows) ([]domain.StoredOpportunity, error) {
	var opps []domain.StoredOpportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

// ListRecent returns the most recently detected opportunities, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.StoredOpportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityCols+` FROM opportunities ORDER BY detected_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	opps, err := collectOpportunities(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	return opps, nil
}

// ListBefore returns all opportunities detected before the cutoff, oldest
// first, for archival.
func (s *OpportunityStore) ListBefore(ctx context.Context, before time.Time) ([]domain.StoredOpportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityCols+` FROM opportunities WHERE detected_at < $1 ORDER BY detected_at`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	opps, err := collectOpportunities(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities before %s: %w", before.Format(time.RFC3339), err)
	}
	return opps, nil
}

// DeleteBefore removes opportunities detected before the cutoff and reports
// how many rows were removed.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM opportunities WHERE detected_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
