package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// TokenScanner runs one arbitrage scan across a token's markets.
type TokenScanner interface {
	ScanToken(ctx context.Context, token string) ([]domain.ArbitrageOpportunity, error)
}

// ScanLoop scans a fixed set of tokens on an interval. Per-token failures
// are logged; the loop never stops on them.
type ScanLoop struct {
	scanner TokenScanner
	tokens  []string
	logger  *slog.Logger
}

// NewScanLoop creates a ScanLoop over the configured tokens.
func NewScanLoop(scanner TokenScanner, tokens []string, logger *slog.Logger) *ScanLoop {
	return &ScanLoop{
		scanner: scanner,
		tokens:  tokens,
		logger:  logger.With(slog.String("component", "scan_loop")),
	}
}

// Run scans all tokens once per interval until ctx is cancelled.
func (l *ScanLoop) Run(ctx context.Context, interval time.Duration) error {
	if len(l.tokens) == 0 {
		l.logger.Info("no tokens configured, scan loop exiting")
		return nil
	}

	l.scanAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.scanAll(ctx)
		}
	}
}

func (l *ScanLoop) scanAll(ctx context.Context) {
	for _, token := range l.tokens {
		found, err := l.scanner.ScanToken(ctx, token)
		if err != nil {
			l.logger.Warn("token scan failed",
				slog.String("token", token),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(found) > 0 {
			l.logger.Info("scan found opportunities",
				slog.String("token", token),
				slog.Int("count", len(found)),
			)
		}
	}
}
