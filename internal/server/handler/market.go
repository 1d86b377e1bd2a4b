package handler

import (
	"log/slog"
	"net/http"

	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/service"
)

// MarketHandler serves market metadata and raw book endpoints.
type MarketHandler struct {
	svc    *service.MarketService
	books  domain.BookCache
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(svc *service.MarketService, books domain.BookCache, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{svc: svc, books: books, logger: logger}
}

// ListMarkets lists active markets.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.svc.ListActive(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if markets == nil {
		markets = []domain.Market{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": markets})
}

// GetMarket returns one market's metadata.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	market, err := h.svc.GetMarket(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, market)
}

// GetBook returns the live cached book for one market.
// GET /api/markets/{id}/book
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	snap, err := h.books.GetSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
