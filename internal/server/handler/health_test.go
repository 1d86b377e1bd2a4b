package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeBlocks struct {
	block int64
	err   error
}

func (b fakeBlocks) FetchLatestBlock(context.Context) (int64, error) { return b.block, b.err }

func healthResponse(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, body
}

func TestHealthCheckReportsIndexerBlock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(fakePinger{}, fakeBlocks{block: 19_000_000}, logger)

	code, body := healthResponse(t, h)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["status"] != "ok" || body["cache"] != "ok" || body["indexer"] != "ok" {
		t.Errorf("body = %v, want ok/ok/ok", body)
	}
	if body["indexerBlock"] != float64(19_000_000) {
		t.Errorf("indexerBlock = %v, want 19000000", body["indexerBlock"])
	}
}

func TestHealthCheckIndexerFailureDoesNotDegrade(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(fakePinger{}, fakeBlocks{err: errors.New("subgraph down")}, logger)

	code, body := healthResponse(t, h)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite indexer failure", code)
	}
	if body["status"] != "ok" || body["indexer"] != "unreachable" {
		t.Errorf("body = %v, want ok status with unreachable indexer", body)
	}
}

func TestHealthCheckCacheFailureDegrades(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(fakePinger{err: errors.New("redis down")}, nil, logger)

	code, body := healthResponse(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}
