package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BlockFetcher reports how far the upstream indexer has progressed.
type BlockFetcher interface {
	FetchLatestBlock(ctx context.Context) (int64, error)
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	cache   Pinger
	indexer BlockFetcher
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. cache may be nil when the server
// runs without Redis; indexer may be nil when no indexer is configured.
func NewHealthHandler(cache Pinger, indexer BlockFetcher, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{cache: cache, indexer: indexer, logger: logger}
}

// HealthCheck reports liveness, cache connectivity, and indexer progress.
// An unreachable indexer is reported but does not degrade the service;
// analytics keep answering from cached books.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.indexer != nil {
		if block, err := h.indexer.FetchLatestBlock(r.Context()); err != nil {
			resp["indexer"] = "unreachable"
			h.logger.WarnContext(r.Context(), "health: indexer unreachable",
				slog.String("error", err.Error()),
			)
		} else {
			resp["indexer"] = "ok"
			resp["indexerBlock"] = block
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["cache"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["cache"] = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}
