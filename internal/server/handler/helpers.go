// Package handler implements the HTTP API endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// writeJSON marshals v and writes it with the given status. A marshal
// failure falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain error values onto HTTP responses. Partial
// fillability errors are 422 and include their numeric context so a caller
// can size down without a retry loop.
func writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientLiquidityError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     "insufficient liquidity",
			"filled":    insufficient.Filled,
			"requested": insufficient.Requested,
		})
		return
	}
	var aggregate *domain.InsufficientAggregateLiquidityError
	if errors.As(err, &aggregate) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "insufficient aggregate liquidity",
			"missing": aggregate.Missing,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidOrderSize),
		errors.Is(err, domain.ErrEmptyLadder),
		errors.Is(err, domain.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseListOpts extracts pagination from the query string. Defaults:
// limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{Limit: limit, Offset: offset}
}

// querySide parses the side parameter, defaulting to buy.
func querySide(r *http.Request) (domain.Side, error) {
	v := r.URL.Query().Get("side")
	if v == "" {
		return domain.SideBuy, nil
	}
	side := domain.Side(v)
	if !side.Valid() {
		return "", fmt.Errorf("side %q: %w", v, domain.ErrInvalidSide)
	}
	return side, nil
}

// queryFloat parses a required positive float query parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing %q parameter", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter: %v", name, err)
	}
	return f, nil
}
