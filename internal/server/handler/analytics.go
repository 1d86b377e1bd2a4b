package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/service"
)

// AnalyticsHandler serves the slippage, liquidity, arbitrage, and routing
// endpoints.
type AnalyticsHandler struct {
	svc    *service.AnalyticsService
	logger *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// Slippage estimates the fill for an order against one market's book.
// GET /api/slippage?market=..&size=..&side=buy
func (h *AnalyticsHandler) Slippage(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("market")
	if marketID == "" {
		writeError(w, http.StatusBadRequest, `missing "market" parameter`)
		return
	}
	size, err := queryFloat(r, "size")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := querySide(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.svc.Slippage(r.Context(), marketID, size, side)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SlippageLadder estimates fills for several sizes at once.
// GET /api/slippage/ladder?market=..&side=buy&sizes=10,100,1000
func (h *AnalyticsHandler) SlippageLadder(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("market")
	if marketID == "" {
		writeError(w, http.StatusBadRequest, `missing "market" parameter`)
		return
	}
	side, err := querySide(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sizes, err := parseSizes(r.URL.Query().Get("sizes"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.svc.SlippageLadder(r.Context(), marketID, side, sizes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ladder": entries})
}

// Liquidity scores a market's book health.
// GET /api/liquidity?market=..
func (h *AnalyticsHandler) Liquidity(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("market")
	if marketID == "" {
		writeError(w, http.StatusBadRequest, `missing "market" parameter`)
		return
	}

	score, err := h.svc.Liquidity(r.Context(), marketID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// Arbitrage scans a token's markets for dislocations.
// GET /api/arbitrage?token=WETH
func (h *AnalyticsHandler) Arbitrage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, `missing "token" parameter`)
		return
	}

	opps, err := h.svc.ScanToken(r.Context(), token)
	if err != nil {
		if service.IsUnknownToken(err) {
			writeError(w, http.StatusNotFound, "unknown token")
			return
		}
		writeDomainError(w, err)
		return
	}
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": opps})
}

// RecentOpportunities lists persisted scan history.
// GET /api/arbitrage/recent?limit=50
func (h *AnalyticsHandler) RecentOpportunities(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	opps, err := h.svc.RecentOpportunities(r.Context(), opts.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if opps == nil {
		opps = []domain.StoredOpportunity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": opps})
}

// OpportunityStream replays the durable opportunity stream after a cursor.
// GET /api/arbitrage/stream?after=<id>&limit=100
func (h *AnalyticsHandler) OpportunityStream(w http.ResponseWriter, r *http.Request) {
	after := r.URL.Query().Get("after")
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, `invalid "limit" parameter`)
			return
		}
		limit = n
	}

	entries, err := h.svc.ReplayOpportunities(r.Context(), after, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []service.StreamEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Route finds the cost-minimizing split for an order across markets.
// GET /api/route?token=WETH&amount=100&side=buy
func (h *AnalyticsHandler) Route(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, `missing "token" parameter`)
		return
	}
	amount, err := queryFloat(r, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := querySide(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	route, err := h.svc.Route(r.Context(), token, amount, side)
	if err != nil {
		if service.IsUnknownToken(err) {
			writeError(w, http.StatusNotFound, "unknown token")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// parseSizes parses a comma-separated list of order sizes.
func parseSizes(raw string) ([]float64, error) {
	if raw == "" {
		return nil, fmt.Errorf(`missing "sizes" parameter`)
	}
	parts := strings.Split(raw, ",")
	sizes := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf(`invalid "sizes" parameter`)
		}
		sizes = append(sizes, f)
	}
	return sizes, nil
}
