package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/liquidlens/liquidlens/internal/analytics"
	"github.com/liquidlens/liquidlens/internal/collector"
	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/feed"
	"github.com/liquidlens/liquidlens/internal/metrics"
	"github.com/liquidlens/liquidlens/internal/pipeline"
	"github.com/liquidlens/liquidlens/internal/server"
	"github.com/liquidlens/liquidlens/internal/server/handler"
	"github.com/liquidlens/liquidlens/internal/server/ws"
	"github.com/liquidlens/liquidlens/internal/service"
	"github.com/liquidlens/liquidlens/internal/webhook"
)

// services bundles the domain services the modes share.
type services struct {
	market    *service.MarketService
	analytics *service.AnalyticsService
}

// buildServices constructs the analytics core and the services on top of it.
func (a *App) buildServices(deps *Dependencies) *services {
	engine := analytics.NewSlippageEngine()
	scorer := analytics.NewLiquidityScorer()
	scanner := analytics.NewArbitrageScanner(a.cfg.Analytics.MinSpreadPercent)
	optimizer := analytics.NewRouteOptimizer(engine)

	coll := collector.New(deps.BookCache, a.cfg.Analytics.CollectorConcurrency, a.logger)
	marketSvc := service.NewMarketService(deps.MarketStore, deps.MarketCache, a.logger)
	analyticsSvc := service.NewAnalyticsService(
		engine, scorer, scanner, optimizer,
		marketSvc, deps.BookCache, coll,
		deps.ResultCache, deps.OpportunityStore, deps.SignalBus,
		a.logger,
	)

	return &services{market: marketSvc, analytics: analyticsSvc}
}

// ServerMode runs the HTTP API, the WebSocket hub, and the webhook
// dispatcher.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)

	return g.Wait()
}

// CollectMode runs only the venue feed, ingesting book snapshots into the
// cache and announcing them on the signal bus.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting collect mode")

	if !a.cfg.Feed.Enabled {
		return fmt.Errorf("app: collect mode requires feed.enabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startFeed(ctx, g, deps); err != nil {
		return err
	}

	return g.Wait()
}

// ScrapeMode runs the background pipeline: pool discovery, token scans, and
// archival.
func (a *App) ScrapeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scrape mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startPipeline(ctx, g, deps, svcs)

	return g.Wait()
}

// FullMode runs every subsystem: feed, pipeline, HTTP server, WebSocket
// hub, and webhook dispatcher.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	if a.cfg.Feed.Enabled {
		if err := a.startFeed(ctx, g, deps); err != nil {
			return err
		}
	}

	a.startPipeline(ctx, g, deps, svcs)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}

	return g.Wait()
}

// startFeed subscribes the venue feed to the configured markets, falling
// back to the active markets in the store when none are configured.
func (a *App) startFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) error {
	marketIDs := a.cfg.Feed.Markets
	if len(marketIDs) == 0 {
		active, err := deps.MarketStore.ListActive(ctx, domain.ListOpts{Limit: 500})
		if err != nil {
			return fmt.Errorf("app: load feed markets: %w", err)
		}
		for _, m := range active {
			marketIDs = append(marketIDs, m.ID)
		}
	}
	if len(marketIDs) == 0 {
		a.logger.WarnContext(ctx, "feed enabled but no markets to watch")
		return nil
	}

	venueFeed := feed.NewVenueFeed(
		a.cfg.Feed.WSURL, a.cfg.Feed.Venue, marketIDs,
		deps.BookCache, deps.SignalBus, a.logger,
	)
	g.Go(func() error {
		defer venueFeed.Close()
		err := venueFeed.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	return nil
}

// startPipeline starts the orchestrator with whatever loops the
// configuration and wiring allow.
func (a *App) startPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	var scraper *pipeline.PoolScraper
	if deps.Indexer != nil {
		scraper = pipeline.NewPoolScraper(svcs.market, deps.Indexer, a.cfg.Indexer.MinReserveUSD, a.logger)
	}

	var scans *pipeline.ScanLoop
	if len(a.cfg.Pipeline.ScanTokens) > 0 {
		scans = pipeline.NewScanLoop(svcs.analytics, a.cfg.Pipeline.ScanTokens, a.logger)
	}

	var archiver *pipeline.Archiver
	if deps.Archiver != nil {
		archiver = pipeline.NewArchiver(deps.Archiver, a.cfg.Pipeline.ArchiveRetentionDays, a.logger)
	}

	if scraper == nil && scans == nil && archiver == nil {
		a.logger.WarnContext(ctx, "pipeline has nothing to run; check indexer, scan_tokens, and s3 config")
		return
	}

	orch := pipeline.NewOrchestrator(
		scraper, scans, archiver,
		a.cfg.Pipeline.ScrapeInterval.Duration,
		a.cfg.Pipeline.ScanInterval.Duration,
		a.cfg.Pipeline.ArchiveCron,
		a.logger,
	)
	g.Go(func() error {
		return orch.Run(ctx)
	})
}

// startHTTPServer adds the API server, the WebSocket hub, and the webhook
// dispatcher to the errgroup. The server is shut down gracefully when the
// context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	registry := metrics.NewRegistry()

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	dispatcher := webhook.NewDispatcher(deps.WebhookStore, deps.SignalBus, a.logger)
	g.Go(func() error {
		err := dispatcher.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	// A nil *indexer.Client must stay a nil interface in the handler.
	var blocks handler.BlockFetcher
	if deps.Indexer != nil {
		blocks = deps.Indexer
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(deps.Redis, blocks, a.logger),
		Markets:   handler.NewMarketHandler(svcs.market, deps.BookCache, a.logger),
		Analytics: handler.NewAnalyticsHandler(svcs.analytics, a.logger),
		Webhooks:  handler.NewWebhookHandler(deps.WebhookStore, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:             a.cfg.Server.Port,
		CORSOrigins:      a.cfg.Server.CORSOrigins,
		APIKey:           a.cfg.Server.APIKey,
		RateLimitPerMin:  a.cfg.Server.RateLimitPerMin,
		RateLimitEnabled: a.cfg.Server.RateLimitEnabled,
	}, handlers, hub, deps.RateLimiter, registry, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
}
