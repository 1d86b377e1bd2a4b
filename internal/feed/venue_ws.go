package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liquidlens/liquidlens/internal/domain"
	"github.com/liquidlens/liquidlens/internal/metrics"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff.
	maxReconnectDelay = 60 * time.Second
)

// BookChannel is the pub/sub channel pattern for live book updates. The
// suffix is the market ID.
const BookChannel = "books:"

// VenueFeed subscribes to a venue's book stream and writes every snapshot
// into the book cache, then announces it on the signal bus. It reconnects
// with exponential backoff until its context is cancelled.
type VenueFeed struct {
	wsURL     string
	venue     string
	marketIDs []string
	books     domain.BookCache
	bus       domain.SignalBus
	logger    *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewVenueFeed creates a feed for the given markets on one venue endpoint.
func NewVenueFeed(wsURL, venue string, marketIDs []string, books domain.BookCache, bus domain.SignalBus, logger *slog.Logger) *VenueFeed {
	return &VenueFeed{
		wsURL:     wsURL,
		venue:     venue,
		marketIDs: marketIDs,
		books:     books,
		bus:       bus,
		logger:    logger.With(slog.String("component", "venue_feed"), slog.String("venue", venue)),
		done:      make(chan struct{}),
	}
}

// Run connects and processes book messages until ctx is cancelled or Close
// is called. Each dropped connection is retried with exponential backoff.
func (f *VenueFeed) Run(ctx context.Context) error {
	if len(f.marketIDs) == 0 {
		f.logger.Info("no markets to subscribe, exiting")
		return nil
	}

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-f.done:
			return nil
		default:
		}

		metrics.FeedReconnects.WithLabelValues(f.venue).Inc()
		f.logger.Warn("feed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Close stops the feed.
func (f *VenueFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// runConnection dials, subscribes, and reads frames until the connection
// drops or ctx is cancelled. A healthy connection resets the caller's
// backoff only implicitly through long uptime; the error returned here is
// always the terminal read or dial failure.
func (f *VenueFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect %s: %w", f.venue, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := f.subscribe(conn); err != nil {
		return err
	}
	f.logger.Info("subscribed", slog.Int("markets", len(f.marketIDs)))

	// Ping loop ends when the connection closes or ctx is done.
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go f.pingLoop(pingCtx, conn)

	// Close the connection when ctx ends so ReadMessage unblocks.
	go func() {
		select {
		case <-pingCtx.Done():
		case <-f.done:
		}
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read %s: %v: %w", f.venue, err, domain.ErrWSDisconnect)
		}
		f.handleFrame(ctx, raw)
	}
}

func (f *VenueFeed) subscribe(conn *websocket.Conn) error {
	cmd := subscribeCommand{
		Type:    "subscribe",
		Channel: "book",
		Markets: f.marketIDs,
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("feed: marshal subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("feed: subscribe %s: %w", f.venue, err)
	}
	return nil
}

func (f *VenueFeed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame stores a book snapshot and announces it. Non-book frames and
// malformed payloads are dropped.
func (f *VenueFeed) handleFrame(ctx context.Context, raw []byte) {
	msg, ok := decodeBook(raw)
	if !ok {
		return
	}

	snap, err := toSnapshot(msg)
	if err != nil {
		f.logger.Warn("dropping malformed book", slog.String("error", err.Error()))
		return
	}

	if err := f.books.SetSnapshot(ctx, snap.MarketID, snap); err != nil {
		f.logger.Error("cache book failed",
			slog.String("market_id", snap.MarketID),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.BooksIngested.WithLabelValues(f.venue).Inc()

	if f.bus != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			return
		}
		if err := f.bus.Publish(ctx, BookChannel+snap.MarketID, payload); err != nil {
			f.logger.Warn("publish book failed",
				slog.String("market_id", snap.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}
}
