// Package server assembles the HTTP API: routes, middleware chain, and
// lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/metrics"
	"github.com/liquidlens/liquidlens/internal/server/handler"
	"github.com/liquidlens/liquidlens/internal/server/middleware"
	"github.com/liquidlens/liquidlens/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port             int
	CORSOrigins      []string
	APIKey           string // empty disables authentication
	RateLimitPerMin  int    // zero disables rate limiting
	RateLimitEnabled bool
}

// Handlers aggregates the endpoint handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Markets   *handler.MarketHandler
	Analytics *handler.AnalyticsHandler
	Webhooks  *handler.WebhookHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and builds the middleware chain. limiter
// and registry may be nil; the corresponding middleware and endpoint are
// then skipped.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, registry *prometheus.Registry, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health and metrics bypass auth.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	if registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(registry))
	}

	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/book", handlers.Markets.GetBook)

	mux.HandleFunc("GET /api/slippage", handlers.Analytics.Slippage)
	mux.HandleFunc("GET /api/slippage/ladder", handlers.Analytics.SlippageLadder)
	mux.HandleFunc("GET /api/liquidity", handlers.Analytics.Liquidity)
	mux.HandleFunc("GET /api/arbitrage", handlers.Analytics.Arbitrage)
	mux.HandleFunc("GET /api/arbitrage/recent", handlers.Analytics.RecentOpportunities)
	mux.HandleFunc("GET /api/arbitrage/stream", handlers.Analytics.OpportunityStream)
	mux.HandleFunc("GET /api/route", handlers.Analytics.Route)

	mux.HandleFunc("POST /api/webhooks", handlers.Webhooks.Create)
	mux.HandleFunc("GET /api/webhooks", handlers.Webhooks.List)
	mux.HandleFunc("GET /api/webhooks/{id}", handlers.Webhooks.Get)
	mux.HandleFunc("DELETE /api/webhooks/{id}", handlers.Webhooks.Delete)
	mux.HandleFunc("GET /api/webhooks/{id}/deliveries", handlers.Webhooks.Deliveries)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Innermost first: metrics, auth, rate limit, logging, CORS.
	var h http.Handler = mux
	h = middleware.Metrics()(h)
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimitEnabled && cfg.RateLimitPerMin > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMin, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the server fails or shuts down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
