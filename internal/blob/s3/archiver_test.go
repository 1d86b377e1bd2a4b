package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
)

type memBlobWriter struct {
	objects map[string][]byte
}

func (w *memBlobWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if w.objects == nil {
		w.objects = make(map[string][]byte)
	}
	w.objects[path] = b
	return nil
}

type memOppStore struct {
	opps    []domain.StoredOpportunity
	deleted time.Time
}

func (s *memOppStore) InsertBatch(_ context.Context, opps []domain.StoredOpportunity) error {
	s.opps = append(s.opps, opps...)
	return nil
}

func (s *memOppStore) ListRecent(_ context.Context, limit int) ([]domain.StoredOpportunity, error) {
	if limit > len(s.opps) {
		limit = len(s.opps)
	}
	return s.opps[:limit], nil
}

func (s *memOppStore) ListBefore(_ context.Context, before time.Time) ([]domain.StoredOpportunity, error) {
	var out []domain.StoredOpportunity
	for _, o := range s.opps {
		if o.DetectedAt.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOppStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.deleted = before
	var kept []domain.StoredOpportunity
	var n int64
	for _, o := range s.opps {
		if o.DetectedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	s.opps = kept
	return n, nil
}

func TestArchiveOpportunities(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &memOppStore{
		opps: []domain.StoredOpportunity{
			{ID: "old-1", DetectedAt: cutoff.Add(-48 * time.Hour)},
			{ID: "old-2", DetectedAt: cutoff.Add(-time.Hour)},
			{ID: "fresh", DetectedAt: cutoff.Add(time.Hour)},
		},
	}
	writer := &memBlobWriter{}
	archiver := NewArchiver(writer, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	count, err := archiver.ArchiveOpportunities(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveOpportunities: %v", err)
	}
	if count != 2 {
		t.Fatalf("archived count = %d, want 2", count)
	}

	payload, ok := writer.objects["archive/opportunities/2026-03.jsonl"]
	if !ok {
		t.Fatalf("expected archive object, got keys %v", writer.objects)
	}

	var ids []string
	sc := bufio.NewScanner(bytes.NewReader(payload))
	for sc.Scan() {
		var opp domain.StoredOpportunity
		if err := json.Unmarshal(sc.Bytes(), &opp); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		ids = append(ids, opp.ID)
	}
	if len(ids) != 2 || ids[0] != "old-1" || ids[1] != "old-2" {
		t.Fatalf("archived ids = %v, want [old-1 old-2]", ids)
	}

	if len(store.opps) != 1 || store.opps[0].ID != "fresh" {
		t.Fatalf("store after archive = %+v, want only fresh", store.opps)
	}
}

func TestArchiveOpportunitiesEmpty(t *testing.T) {
	writer := &memBlobWriter{}
	archiver := NewArchiver(writer, &memOppStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	count, err := archiver.ArchiveOpportunities(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchiveOpportunities: %v", err)
	}
	if count != 0 {
		t.Fatalf("archived count = %d, want 0", count)
	}
	if len(writer.objects) != 0 {
		t.Fatalf("expected no uploads, got %v", writer.objects)
	}
}
