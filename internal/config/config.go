// Package config defines the top-level configuration for liquidlens and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by LIQUIDLENS_* environment
// variables.
type Config struct {
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Indexer   IndexerConfig   `toml:"indexer"`
	Feed      FeedConfig      `toml:"feed"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Server    ServerConfig    `toml:"server"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds object-storage parameters for the cold archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// IndexerConfig holds the subgraph endpoint used for pool discovery.
type IndexerConfig struct {
	URL           string  `toml:"url"`
	APIKey        string  `toml:"api_key"`
	Venue         string  `toml:"venue"`
	MinReserveUSD float64 `toml:"min_reserve_usd"`
}

// FeedConfig holds the venue WebSocket book feed parameters.
type FeedConfig struct {
	Enabled bool     `toml:"enabled"`
	WSURL   string   `toml:"ws_url"`
	Venue   string   `toml:"venue"`
	Markets []string `toml:"markets"`
}

// AnalyticsConfig holds tunables for the analytics components.
type AnalyticsConfig struct {
	// MinSpreadPercent is the minimum cross-market spread, as a percent of
	// the buy-side ask, for the scanner to report an opportunity.
	MinSpreadPercent float64 `toml:"min_spread_percent"`

	// CollectorConcurrency bounds parallel book fetches per request.
	CollectorConcurrency int `toml:"collector_concurrency"`
}

// PipelineConfig holds background loop parameters.
type PipelineConfig struct {
	Enabled              bool     `toml:"enabled"`
	ScrapeInterval       duration `toml:"scrape_interval"`
	ScanInterval         duration `toml:"scan_interval"`
	ScanTokens           []string `toml:"scan_tokens"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveCron          string   `toml:"archive_cron"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled          bool     `toml:"enabled"`
	Port             int      `toml:"port"`
	CORSOrigins      []string `toml:"cors_origins"`
	APIKey           string   `toml:"api_key"`
	RateLimitEnabled bool     `toml:"rate_limit_enabled"`
	RateLimitPerMin  int      `toml:"rate_limit_per_min"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "5m" or "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "liquidlens",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "liquidlens-archive",
			ForcePathStyle: true,
		},
		Indexer: IndexerConfig{
			URL:           "",
			Venue:         "uniswap-v3",
			MinReserveUSD: 100_000,
		},
		Feed: FeedConfig{
			Enabled: false,
			Venue:   "uniswap-v3",
		},
		Analytics: AnalyticsConfig{
			MinSpreadPercent:     0.5,
			CollectorConcurrency: 8,
		},
		Pipeline: PipelineConfig{
			Enabled:              false,
			ScrapeInterval:       duration{5 * time.Minute},
			ScanInterval:         duration{15 * time.Second},
			ArchiveRetentionDays: 90,
			ArchiveCron:          "0 3 * * *",
		},
		Server: ServerConfig{
			Enabled:          true,
			Port:             8000,
			CORSOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitEnabled: true,
			RateLimitPerMin:  300,
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"collect": true,
	"scrape":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, collect, scrape, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	mode := strings.ToLower(c.Mode)
	if (mode == "scrape" || mode == "full") && c.Indexer.URL == "" {
		errs = append(errs, "indexer: url is required for mode "+mode)
	}
	if c.Indexer.MinReserveUSD < 0 {
		errs = append(errs, "indexer: min_reserve_usd must be >= 0")
	}

	if c.Feed.Enabled && c.Feed.WSURL == "" {
		errs = append(errs, "feed: ws_url must not be empty when enabled")
	}

	if c.Analytics.MinSpreadPercent < 0 {
		errs = append(errs, "analytics: min_spread_percent must be >= 0")
	}
	if c.Analytics.CollectorConcurrency < 1 {
		errs = append(errs, "analytics: collector_concurrency must be >= 1")
	}

	if c.Pipeline.Enabled {
		if c.Pipeline.ScrapeInterval.Duration <= 0 {
			errs = append(errs, "pipeline: scrape_interval must be positive when enabled")
		}
		if c.Pipeline.ScanInterval.Duration <= 0 {
			errs = append(errs, "pipeline: scan_interval must be positive when enabled")
		}
		if c.Pipeline.ArchiveRetentionDays < 1 {
			errs = append(errs, "pipeline: archive_retention_days must be >= 1")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitEnabled && c.Server.RateLimitPerMin < 1 {
			errs = append(errs, "server: rate_limit_per_min must be >= 1 when rate limiting is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
