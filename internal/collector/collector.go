// Package collector gathers orderbook snapshots for a set of markets in
// parallel, dropping markets whose books cannot be fetched so one bad feed
// never blocks an analytics request.
package collector

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// Source fetches the current snapshot for one market. domain.BookCache
// satisfies it.
type Source interface {
	GetSnapshot(ctx context.Context, marketID string) (domain.OrderbookSnapshot, error)
}

// Collector fans snapshot lookups out across a bounded worker pool.
type Collector struct {
	source      Source
	concurrency int
	logger      *slog.Logger
}

// New creates a Collector. concurrency values below 1 are raised to 1.
func New(source Source, concurrency int, logger *slog.Logger) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		source:      source,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "collector")),
	}
}

// Snapshots fetches the books for all marketIDs concurrently. Markets whose
// fetch fails are logged and omitted from the result, so the returned slice
// may be shorter than the input. Order is not preserved. The only error
// returned is context cancellation.
func (c *Collector) Snapshots(ctx context.Context, marketIDs []string) ([]domain.OrderbookSnapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var (
		mu    sync.Mutex
		books = make([]domain.OrderbookSnapshot, 0, len(marketIDs))
	)
	for _, marketID := range marketIDs {
		g.Go(func() error {
			snap, err := c.source.GetSnapshot(ctx, marketID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("dropping market snapshot",
					slog.String("market_id", marketID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			books = append(books, snap)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return books, nil
}

// Summaries fetches the books for all marketIDs and reduces each to its
// top-of-book summary. Markets that fail to fetch are omitted.
func (c *Collector) Summaries(ctx context.Context, marketIDs []string) ([]domain.MarketSummary, error) {
	books, err := c.Snapshots(ctx, marketIDs)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.MarketSummary, 0, len(books))
	for _, book := range books {
		summaries = append(summaries, book.Summary())
	}
	return summaries, nil
}

// Depths fetches the books for all marketIDs and keeps the ladder for the
// requested side. Markets that fail to fetch are omitted.
func (c *Collector) Depths(ctx context.Context, marketIDs []string, side domain.Side) ([]domain.MarketDepth, error) {
	books, err := c.Snapshots(ctx, marketIDs)
	if err != nil {
		return nil, err
	}
	depths := make([]domain.MarketDepth, 0, len(books))
	for _, book := range books {
		depths = append(depths, domain.MarketDepth{
			MarketID: book.MarketID,
			Ladder:   book.Ladder(side),
		})
	}
	return depths, nil
}
