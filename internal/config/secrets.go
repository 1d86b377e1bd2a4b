package config

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder. Use this when logging the active configuration so
// secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Indexer.APIKey)
	redact(&out.Server.APIKey)

	// Copy slices so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Feed.Markets != nil {
		out.Feed.Markets = append([]string(nil), cfg.Feed.Markets...)
	}
	if cfg.Pipeline.ScanTokens != nil {
		out.Pipeline.ScanTokens = append([]string(nil), cfg.Pipeline.ScanTokens...)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
