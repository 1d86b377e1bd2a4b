package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LIQUIDLENS_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LIQUIDLENS_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LIQUIDLENS_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "LIQUIDLENS_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LIQUIDLENS_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LIQUIDLENS_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LIQUIDLENS_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LIQUIDLENS_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LIQUIDLENS_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LIQUIDLENS_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LIQUIDLENS_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LIQUIDLENS_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "LIQUIDLENS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LIQUIDLENS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LIQUIDLENS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LIQUIDLENS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LIQUIDLENS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LIQUIDLENS_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "LIQUIDLENS_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LIQUIDLENS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LIQUIDLENS_S3_REGION")
	setStr(&cfg.S3.Bucket, "LIQUIDLENS_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LIQUIDLENS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LIQUIDLENS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LIQUIDLENS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LIQUIDLENS_S3_FORCE_PATH_STYLE")

	// ── Indexer ──
	setStr(&cfg.Indexer.URL, "LIQUIDLENS_INDEXER_URL")
	setStr(&cfg.Indexer.APIKey, "LIQUIDLENS_INDEXER_API_KEY")
	setStr(&cfg.Indexer.Venue, "LIQUIDLENS_INDEXER_VENUE")
	setFloat64(&cfg.Indexer.MinReserveUSD, "LIQUIDLENS_INDEXER_MIN_RESERVE_USD")

	// ── Feed ──
	setBool(&cfg.Feed.Enabled, "LIQUIDLENS_FEED_ENABLED")
	setStr(&cfg.Feed.WSURL, "LIQUIDLENS_FEED_WS_URL")
	setStr(&cfg.Feed.Venue, "LIQUIDLENS_FEED_VENUE")
	setStringSlice(&cfg.Feed.Markets, "LIQUIDLENS_FEED_MARKETS")

	// ── Analytics ──
	setFloat64(&cfg.Analytics.MinSpreadPercent, "LIQUIDLENS_ANALYTICS_MIN_SPREAD_PERCENT")
	setInt(&cfg.Analytics.CollectorConcurrency, "LIQUIDLENS_ANALYTICS_COLLECTOR_CONCURRENCY")

	// ── Pipeline ──
	setBool(&cfg.Pipeline.Enabled, "LIQUIDLENS_PIPELINE_ENABLED")
	setDuration(&cfg.Pipeline.ScrapeInterval, "LIQUIDLENS_PIPELINE_SCRAPE_INTERVAL")
	setDuration(&cfg.Pipeline.ScanInterval, "LIQUIDLENS_PIPELINE_SCAN_INTERVAL")
	setStringSlice(&cfg.Pipeline.ScanTokens, "LIQUIDLENS_PIPELINE_SCAN_TOKENS")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "LIQUIDLENS_PIPELINE_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Pipeline.ArchiveCron, "LIQUIDLENS_PIPELINE_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "LIQUIDLENS_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "LIQUIDLENS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LIQUIDLENS_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "LIQUIDLENS_SERVER_API_KEY")
	setBool(&cfg.Server.RateLimitEnabled, "LIQUIDLENS_SERVER_RATE_LIMIT_ENABLED")
	setInt(&cfg.Server.RateLimitPerMin, "LIQUIDLENS_SERVER_RATE_LIMIT_PER_MIN")

	// ── Top-level ──
	setStr(&cfg.Mode, "LIQUIDLENS_MODE")
	setStr(&cfg.LogLevel, "LIQUIDLENS_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
