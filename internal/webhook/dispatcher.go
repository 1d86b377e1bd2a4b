package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// EventsChannel is the pub/sub channel the dispatcher consumes.
const EventsChannel = "events"

// Event is the envelope services publish on the events channel.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// PublishEvent marshals data into an event envelope and publishes it.
func PublishEvent(ctx context.Context, bus domain.SignalBus, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("webhook: marshal event %s: %w", name, err)
	}
	payload, err := json.Marshal(Event{Name: name, Data: raw})
	if err != nil {
		return fmt.Errorf("webhook: marshal envelope %s: %w", name, err)
	}
	if err := bus.Publish(ctx, EventsChannel, payload); err != nil {
		return fmt.Errorf("webhook: publish event %s: %w", name, err)
	}
	return nil
}

// Dispatcher fans events out to active webhook subscriptions. Every request
// carries a derived-key HMAC signature so subscribers can authenticate the
// origin.
type Dispatcher struct {
	store  domain.WebhookStore
	bus    domain.SignalBus
	client *http.Client
	logger *slog.Logger

	mu      sync.Mutex
	signers map[string]*Signer // keyed by subscription ID
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store domain.WebhookStore, bus domain.SignalBus, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store: store,
		bus:   bus,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  logger.With(slog.String("component", "webhook_dispatcher")),
		signers: make(map[string]*Signer),
	}
}

// Run consumes the events channel until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	msgs, err := d.bus.Subscribe(ctx, EventsChannel)
	if err != nil {
		return fmt.Errorf("webhook: subscribe events: %w", err)
	}
	d.logger.Info("webhook dispatcher started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				d.logger.Warn("dropping malformed event", slog.String("error", err.Error()))
				continue
			}
			d.dispatch(ctx, event)
		}
	}
}

// dispatch delivers one event to every matching active subscription.
// Deliveries are sequential; webhook volume is a few events per scan.
func (d *Dispatcher) dispatch(ctx context.Context, event Event) {
	subs, err := d.store.ListActive(ctx)
	if err != nil {
		d.logger.Error("list subscriptions failed", slog.String("error", err.Error()))
		return
	}

	for _, sub := range subs {
		if !subscribed(sub, event.Name) {
			continue
		}
		d.deliver(ctx, sub, event)
	}
}

// subscribed reports whether the subscription wants this event. An empty
// events list means all events.
func subscribed(sub domain.WebhookSubscription, event string) bool {
	if len(sub.Events) == 0 {
		return true
	}
	for _, e := range sub.Events {
		if e == event {
			return true
		}
	}
	return false
}

func (d *Dispatcher) deliver(ctx context.Context, sub domain.WebhookSubscription, event Event) {
	deliveryID := uuid.NewString()
	now := time.Now().UTC()

	statusCode, deliveryErr := d.post(ctx, sub, event, deliveryID, now)

	delivery := domain.WebhookDelivery{
		ID:             deliveryID,
		SubscriptionID: sub.ID,
		Event:          event.Name,
		StatusCode:     statusCode,
		DeliveredAt:    now,
	}
	if deliveryErr != nil {
		delivery.Error = deliveryErr.Error()
		d.logger.Warn("webhook delivery failed",
			slog.String("subscription_id", sub.ID),
			slog.String("event", event.Name),
			slog.Int("status", statusCode),
			slog.String("error", deliveryErr.Error()),
		)
	}

	if err := d.store.LogDelivery(ctx, delivery); err != nil {
		d.logger.Error("log delivery failed",
			slog.String("delivery_id", deliveryID),
			slog.String("error", err.Error()),
		)
	}
}

func (d *Dispatcher) post(ctx context.Context, sub domain.WebhookSubscription, event Event, deliveryID string, now time.Time) (int, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	ts := now.Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-LiquidLens-Event", event.Name)
	req.Header.Set("X-LiquidLens-Delivery", deliveryID)
	req.Header.Set("X-LiquidLens-Timestamp", fmt.Sprintf("%d", ts))
	req.Header.Set("X-LiquidLens-Signature", d.signer(sub).Sign(ts, body))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// signer returns the cached signer for a subscription, deriving it on first
// use. Key derivation is too slow to repeat per delivery.
func (d *Dispatcher) signer(sub domain.WebhookSubscription) *Signer {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.signers[sub.ID]
	if !ok {
		s = NewSigner(sub.Secret)
		d.signers[sub.ID] = s
	}
	return s
}
