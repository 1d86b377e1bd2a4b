package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the background loops together: pool discovery, token
// scanning, and archival. Any component may be nil and is then skipped.
type Orchestrator struct {
	scraper        *PoolScraper
	scans          *ScanLoop
	archiver       *Archiver
	scrapeInterval time.Duration
	scanInterval   time.Duration
	archiveCron    string
	logger         *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	scraper *PoolScraper,
	scans *ScanLoop,
	archiver *Archiver,
	scrapeInterval time.Duration,
	scanInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scraper:        scraper,
		scans:          scans,
		archiver:       archiver,
		scrapeInterval: scrapeInterval,
		scanInterval:   scanInterval,
		archiveCron:    archiveCron,
		logger:         logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts every configured loop in an errgroup. Context cancellation is
// a clean shutdown; any other loop failure cancels the rest and is
// returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline starting",
		slog.Duration("scrape_interval", o.scrapeInterval),
		slog.Duration("scan_interval", o.scanInterval),
		slog.String("archive_cron", o.archiveCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.scraper != nil {
		g.Go(func() error {
			err := o.scraper.RunLoop(ctx, o.scrapeInterval)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pool scraper: %w", err)
		})
	}

	if o.scans != nil {
		g.Go(func() error {
			err := o.scans.Run(ctx, o.scanInterval)
			if err == nil || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("scan loop: %w", err)
		})
	}

	if o.archiver != nil && o.archiveCron != "" {
		g.Go(func() error {
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("pipeline stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline stopped cleanly")
	return nil
}
