package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
)

type fakeWebhookStore struct {
	subs       []domain.WebhookSubscription
	deliveries []domain.WebhookDelivery
}

func (f *fakeWebhookStore) Create(context.Context, domain.WebhookSubscription) error { return nil }
func (f *fakeWebhookStore) GetByID(context.Context, string) (domain.WebhookSubscription, error) {
	return domain.WebhookSubscription{}, domain.ErrNotFound
}
func (f *fakeWebhookStore) ListActive(context.Context) ([]domain.WebhookSubscription, error) {
	return f.subs, nil
}
func (f *fakeWebhookStore) List(context.Context, domain.ListOpts) ([]domain.WebhookSubscription, error) {
	return f.subs, nil
}
func (f *fakeWebhookStore) Delete(context.Context, string) error { return nil }
func (f *fakeWebhookStore) LogDelivery(_ context.Context, d domain.WebhookDelivery) error {
	f.deliveries = append(f.deliveries, d)
	return nil
}
func (f *fakeWebhookStore) ListDeliveries(context.Context, string, int) ([]domain.WebhookDelivery, error) {
	return f.deliveries, nil
}

func TestDispatcherSignsAndLogsDeliveries(t *testing.T) {
	type received struct {
		body      []byte
		event     string
		delivery  string
		timestamp int64
		signature string
	}
	got := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts, _ := strconv.ParseInt(r.Header.Get("X-LiquidLens-Timestamp"), 10, 64)
		got <- received{
			body:      body,
			event:     r.Header.Get("X-LiquidLens-Event"),
			delivery:  r.Header.Get("X-LiquidLens-Delivery"),
			timestamp: ts,
			signature: r.Header.Get("X-LiquidLens-Signature"),
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := &fakeWebhookStore{subs: []domain.WebhookSubscription{
		{ID: "sub-1", URL: srv.URL, Secret: "s3cret", Active: true},
		{ID: "sub-2", URL: srv.URL, Secret: "other", Events: []string{"market.updated"}, Active: true},
	}}

	d := NewDispatcher(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.dispatch(context.Background(), Event{
		Name: "opportunity.detected",
		Data: json.RawMessage(`{"token":"WETH"}`),
	})

	// Only sub-1 matches; sub-2 filters on a different event.
	select {
	case r := <-got:
		if r.event != "opportunity.detected" {
			t.Errorf("event header = %q", r.event)
		}
		if r.delivery == "" {
			t.Error("delivery header empty")
		}
		if !NewSigner("s3cret").Verify(r.timestamp, r.body, r.signature) {
			t.Error("signature does not verify against the subscriber secret")
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery received")
	}
	select {
	case <-got:
		t.Fatal("filtered subscription received a delivery")
	default:
	}

	if len(store.deliveries) != 1 {
		t.Fatalf("logged deliveries = %d, want 1", len(store.deliveries))
	}
	del := store.deliveries[0]
	if del.SubscriptionID != "sub-1" || del.StatusCode != http.StatusNoContent || del.Error != "" {
		t.Errorf("delivery log = %+v", del)
	}
}

func TestSubscribedFilter(t *testing.T) {
	all := domain.WebhookSubscription{}
	if !subscribed(all, "anything") {
		t.Error("empty events list must match all events")
	}
	scoped := domain.WebhookSubscription{Events: []string{"a", "b"}}
	if !subscribed(scoped, "b") || subscribed(scoped, "c") {
		t.Error("scoped events filter mismatch")
	}
}
