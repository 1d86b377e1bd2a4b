package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults() should validate: %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "full"
log_level = "debug"

[server]
port = 9090

[indexer]
url = "https://indexer.example.com/graphql"

[pipeline]
enabled = true
scrape_interval = "2m"
scan_tokens = ["WETH", "WBTC"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "full" {
		t.Errorf("Mode = %q, want full", cfg.Mode)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Pipeline.ScrapeInterval.Duration != 2*time.Minute {
		t.Errorf("ScrapeInterval = %v, want 2m", cfg.Pipeline.ScrapeInterval.Duration)
	}
	if len(cfg.Pipeline.ScanTokens) != 2 || cfg.Pipeline.ScanTokens[0] != "WETH" {
		t.Errorf("ScanTokens = %v, want [WETH WBTC]", cfg.Pipeline.ScanTokens)
	}
	// Untouched sections keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want default", cfg.Redis.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("merged config should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LIQUIDLENS_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("LIQUIDLENS_SERVER_PORT", "8443")
	t.Setenv("LIQUIDLENS_PIPELINE_SCAN_INTERVAL", "30s")
	t.Setenv("LIQUIDLENS_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LIQUIDLENS_S3_ENABLED", "true")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Server.Port != 8443 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Pipeline.ScanInterval.Duration != 30*time.Second {
		t.Errorf("ScanInterval = %v", cfg.Pipeline.ScanInterval.Duration)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if !cfg.S3.Enabled {
		t.Error("S3.Enabled should be true")
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Redis.Addr = ""
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"unknown mode", "redis: addr", "server: port"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestValidateModeRequiresIndexer(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "scrape"
	cfg.Indexer.URL = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "indexer: url") {
		t.Fatalf("expected indexer url error, got %v", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Server.APIKey = "hunter2"

	red := RedactedConfig(&cfg)
	if red.Postgres.Password != "***" || red.Redis.Password != "***" || red.S3.SecretKey != "***" || red.Server.APIKey != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Error("original config mutated")
	}
	// Empty secrets stay empty rather than showing the placeholder.
	if red.Indexer.APIKey != "" {
		t.Errorf("empty secret became %q", red.Indexer.APIKey)
	}
}
