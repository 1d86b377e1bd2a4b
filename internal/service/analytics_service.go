package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/liquidlens/liquidlens/internal/analytics"
	"github.com/liquidlens/liquidlens/internal/collector"
	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/metrics"
	"github.com/liquidlens/liquidlens/internal/webhook"
)

// OpportunityStream is the durable stream detected opportunities are
// appended to.
const OpportunityStream = "opportunities"

// EventOpportunityDetected is published for each profitable dislocation.
const EventOpportunityDetected = "opportunity.detected"

// Result cache TTLs per query type. Slippage and routing answer against a
// specific book state so they stay fresher than the slower-moving scores.
const (
	slippageTTL  = 2 * time.Second
	liquidityTTL = 5 * time.Second
	arbitrageTTL = 3 * time.Second
	routeTTL     = 2 * time.Second
)

// Replay page bounds for reads from the opportunity stream.
const (
	defaultReplayCount = 100
	maxReplayCount     = 500
)

// AnalyticsService runs the pure analytics components against live books and
// persists what the arbitrage scanner finds.
type AnalyticsService struct {
	engine    *analytics.SlippageEngine
	scorer    *analytics.LiquidityScorer
	scanner   *analytics.ArbitrageScanner
	optimizer *analytics.RouteOptimizer

	marketSvc *MarketService
	books     domain.BookCache
	collector *collector.Collector
	results   domain.ResultCache
	opps      domain.OpportunityStore
	bus       domain.SignalBus
	logger    *slog.Logger
}

// NewAnalyticsService creates an AnalyticsService. results, opps, and bus
// may be nil; caching, persistence, and event publishing are then skipped.
func NewAnalyticsService(
	engine *analytics.SlippageEngine,
	scorer *analytics.LiquidityScorer,
	scanner *analytics.ArbitrageScanner,
	optimizer *analytics.RouteOptimizer,
	marketSvc *MarketService,
	books domain.BookCache,
	coll *collector.Collector,
	results domain.ResultCache,
	opps domain.OpportunityStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		engine:    engine,
		scorer:    scorer,
		scanner:   scanner,
		optimizer: optimizer,
		marketSvc: marketSvc,
		books:     books,
		collector: coll,
		results:   results,
		opps:      opps,
		bus:       bus,
		logger:    logger,
	}
}

// Slippage estimates the fill for one order against a market's current book.
func (s *AnalyticsService) Slippage(ctx context.Context, marketID string, orderSize float64, side domain.Side) (domain.SlippageResult, error) {
	key := fmt.Sprintf("slippage:%s:%s:%g", marketID, side, orderSize)
	var cached domain.SlippageResult
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	snap, err := s.books.GetSnapshot(ctx, marketID)
	if err != nil {
		return domain.SlippageResult{}, fmt.Errorf("analytics_service: slippage %s: %w", marketID, err)
	}

	res, err := s.engine.Calculate(snap.Ladder(side), orderSize, side)
	if err != nil {
		return domain.SlippageResult{}, err
	}

	s.toCache(ctx, key, res, slippageTTL)
	return res, nil
}

// SlippageLadder estimates fills for a set of order sizes against one book.
func (s *AnalyticsService) SlippageLadder(ctx context.Context, marketID string, side domain.Side, sizes []float64) ([]domain.SlippageLadderEntry, error) {
	snap, err := s.books.GetSnapshot(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("analytics_service: slippage ladder %s: %w", marketID, err)
	}
	return s.engine.CalculateLadder(snap.Ladder(side), side, sizes), nil
}

// Liquidity scores a market's current book health.
func (s *AnalyticsService) Liquidity(ctx context.Context, marketID string) (domain.LiquidityScore, error) {
	key := "liquidity:" + marketID
	var cached domain.LiquidityScore
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	snap, err := s.books.GetSnapshot(ctx, marketID)
	if err != nil {
		return domain.LiquidityScore{}, fmt.Errorf("analytics_service: liquidity %s: %w", marketID, err)
	}

	score := s.scorer.Score(snap.Bids, snap.Asks)
	s.toCache(ctx, key, score, liquidityTTL)
	return score, nil
}

// ScanToken runs the arbitrage scanner across every market trading token.
// Detected opportunities are persisted, streamed, and published as events;
// failures there are logged without failing the scan.
func (s *AnalyticsService) ScanToken(ctx context.Context, token string) ([]domain.ArbitrageOpportunity, error) {
	key := "arbitrage:" + token
	var cached []domain.ArbitrageOpportunity
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	marketIDs, err := s.marketSvc.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	summaries, err := s.collector.Summaries(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("analytics_service: scan %s: %w", token, err)
	}

	found := s.scanner.FindOpportunities(summaries)
	metrics.ScansTotal.WithLabelValues(token).Inc()
	if len(found) > 0 {
		s.recordOpportunities(ctx, found)
	}

	s.toCache(ctx, key, found, arbitrageTTL)
	return found, nil
}

// Route finds the cost-minimizing split for an order across a token's
// markets.
func (s *AnalyticsService) Route(ctx context.Context, token string, amount float64, side domain.Side) (domain.Route, error) {
	key := fmt.Sprintf("route:%s:%s:%g", token, side, amount)
	var cached domain.Route
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	marketIDs, err := s.marketSvc.ResolveToken(ctx, token)
	if err != nil {
		return domain.Route{}, err
	}

	depths, err := s.collector.Depths(ctx, marketIDs, side)
	if err != nil {
		return domain.Route{}, fmt.Errorf("analytics_service: route %s: %w", token, err)
	}

	route, err := s.optimizer.FindOptimalRoute(token, amount, side, depths)
	if err != nil {
		return domain.Route{}, err
	}

	s.toCache(ctx, key, route, routeTTL)
	return route, nil
}

// StreamEntry pairs a durable-stream cursor with the opportunity recorded
// at it. The ID orders entries and serves as the "after" cursor for the
// next read.
type StreamEntry struct {
	ID          string                   `json:"id"`
	Opportunity domain.StoredOpportunity `json:"opportunity"`
}

// ReplayOpportunities reads opportunity-stream entries after the given
// cursor. An empty cursor reads from the start of the stream. Entries whose
// payloads no longer decode are dropped.
func (s *AnalyticsService) ReplayOpportunities(ctx context.Context, after string, count int) ([]StreamEntry, error) {
	if s.bus == nil {
		return nil, nil
	}
	if after == "" {
		after = "0"
	}
	if count <= 0 || count > maxReplayCount {
		count = defaultReplayCount
	}
	msgs, err := s.bus.StreamRead(ctx, OpportunityStream, after, count)
	if err != nil {
		return nil, fmt.Errorf("analytics_service: replay opportunities: %w", err)
	}
	entries := make([]StreamEntry, 0, len(msgs))
	for _, msg := range msgs {
		var opp domain.StoredOpportunity
		if err := json.Unmarshal(msg.Payload, &opp); err != nil {
			continue
		}
		entries = append(entries, StreamEntry{ID: msg.ID, Opportunity: opp})
	}
	return entries, nil
}

// RecentOpportunities returns the latest persisted scan results.
func (s *AnalyticsService) RecentOpportunities(ctx context.Context, limit int) ([]domain.StoredOpportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	opps, err := s.opps.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics_service: recent opportunities: %w", err)
	}
	return opps, nil
}

// recordOpportunities persists, streams, and publishes one scan's findings.
func (s *AnalyticsService) recordOpportunities(ctx context.Context, found []domain.ArbitrageOpportunity) {
	now := time.Now().UTC()
	stored := make([]domain.StoredOpportunity, 0, len(found))
	for _, opp := range found {
		metrics.OpportunitiesDetected.Inc()
		metrics.OpportunitySpreadPercent.Observe(opp.SpreadPercent)
		stored = append(stored, domain.StoredOpportunity{
			ID:                   uuid.NewString(),
			ArbitrageOpportunity: opp,
			DetectedAt:           now,
		})
	}

	if s.opps != nil {
		if err := s.opps.InsertBatch(ctx, stored); err != nil {
			s.logger.ErrorContext(ctx, "analytics_service: persist opportunities failed",
				slog.Int("count", len(stored)),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus == nil {
		return
	}
	for _, opp := range stored {
		payload, err := json.Marshal(opp)
		if err != nil {
			continue
		}
		if err := s.bus.StreamAppend(ctx, OpportunityStream, payload); err != nil {
			s.logger.WarnContext(ctx, "analytics_service: stream append failed",
				slog.String("error", err.Error()),
			)
		}
		if err := webhook.PublishEvent(ctx, s.bus, EventOpportunityDetected, opp); err != nil {
			s.logger.WarnContext(ctx, "analytics_service: publish event failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// fromCache loads a cached result into out. A miss or decode failure means
// recompute.
func (s *AnalyticsService) fromCache(ctx context.Context, key string, out any) bool {
	if s.results == nil {
		return false
	}
	payload, err := s.results.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

// toCache stores a result, logging failures without surfacing them.
func (s *AnalyticsService) toCache(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.results == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.results.Set(ctx, key, payload, ttl); err != nil {
		s.logger.WarnContext(ctx, "analytics_service: cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
