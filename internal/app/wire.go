package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/liquidlens/liquidlens/internal/blob/s3"
	"github.com/liquidlens/liquidlens/internal/cache/redis"
	"github.com/liquidlens/liquidlens/internal/config"
	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/platform/indexer"
	"github.com/liquidlens/liquidlens/internal/store/postgres"
)

// Dependencies bundles every infrastructure dependency the application
// modes need. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	MarketStore      domain.MarketStore
	OpportunityStore domain.OpportunityStore
	WebhookStore     domain.WebhookStore

	// Caches
	BookCache   domain.BookCache
	ResultCache domain.ResultCache
	MarketCache domain.MarketCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Redis client, kept for the health endpoint.
	Redis *redis.Client

	// Cold storage. Nil when S3 is disabled.
	Archiver *s3blob.Archiver

	// Pool discovery. Nil when no indexer URL is configured.
	Indexer *indexer.Client
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them with a cleanup function to be called on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.OpportunityStore = postgres.NewOpportunityStore(pool)
	deps.WebhookStore = postgres.NewWebhookStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.BookCache = redis.NewBookCache(redisClient)
	deps.ResultCache = redis.NewResultCache(redisClient)
	deps.MarketCache = redis.NewMarketCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 cold storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.OpportunityStore, logger)
	}

	// --- Indexer ---
	if strings.TrimSpace(cfg.Indexer.URL) != "" {
		deps.Indexer = indexer.NewClient(cfg.Indexer.URL, cfg.Indexer.Venue, cfg.Indexer.APIKey)
	}

	return deps, cleanup, nil
}
