package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketUpsert = `
	INSERT INTO markets (
		id, venue, token, quote, pool_address, active, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		venue        = EXCLUDED.venue,
		token        = EXCLUDED.token,
		quote        = EXCLUDED.quote,
		pool_address = EXCLUDED.pool_address,
		active       = EXCLUDED.active,
		updated_at   = NOW()`

const marketCols = `id, venue, token, quote, pool_address, active, created_at, updated_at`

// UpsertBatch inserts or updates multiple markets in one round trip.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(marketUpsert,
			m.ID, m.Venue, m.Token, m.Quote, m.PoolAddress, m.Active, m.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.ID, &m.Venue, &m.Token, &m.Quote, &m.PoolAddress, &m.Active,
		&m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// ListByToken returns the active markets trading the given token symbol.
func (s *MarketStore) ListByToken(ctx context.Context, token string) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketCols+` FROM markets WHERE token = $1 AND active ORDER BY id`, token)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets by token %s: %w", token, err)
	}
	defer rows.Close()

	markets, err := collectMarkets(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets by token %s: %w", token, err)
	}
	return markets, nil
}

// ListActive returns active markets with pagination.
func (s *MarketStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE active ORDER BY id`
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
		return nil, fmt.Errorf("postgres: list active markets: %w", err)
	}
	defer rows.Close()

	markets, err := collectMarkets(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active markets: %w", err)
	}
	return markets, nil
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
