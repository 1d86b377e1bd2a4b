package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// WebhookHandler manages webhook subscriptions.
type WebhookHandler struct {
	store  domain.WebhookStore
	logger *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(store domain.WebhookStore, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{store: store, logger: logger}
}

// createWebhookRequest is the subscription registration payload.
type createWebhookRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret"`
	Events []string `json:"events"`
}

// Create registers a webhook subscription.
// POST /api/webhooks
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Secret == "" {
		writeError(w, http.StatusBadRequest, `"secret" is required`)
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, `"url" must be a valid http(s) URL`)
		return
	}

	sub := domain.WebhookSubscription{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Secret:    req.Secret,
		Events:    req.Events,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Create(r.Context(), sub); err != nil {
		writeDomainError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "webhook subscription created",
		slog.String("subscription_id", sub.ID),
	)
	writeJSON(w, http.StatusCreated, sub)
}

// List lists subscriptions.
// GET /api/webhooks
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if subs == nil {
		subs = []domain.WebhookSubscription{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"webhooks": subs})
}

// Get returns one subscription.
// GET /api/webhooks/{id}
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Delete removes a subscription.
// DELETE /api/webhooks/{id}
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deliveries lists recent delivery attempts for a subscription.
// GET /api/webhooks/{id}/deliveries
func (h *WebhookHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	deliveries, err := h.store.ListDeliveries(r.Context(), id, parseListOpts(r).Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []domain.WebhookDelivery{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": deliveries})
}
