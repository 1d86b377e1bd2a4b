// Package feed ingests live order books from venue WebSocket endpoints and
// keeps the book cache current.
package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// subscribeCommand is the outbound subscription envelope.
type subscribeCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Markets []string `json:"markets"`
}

// bookMessage is one full-book snapshot on the "book" channel. Price levels
// arrive as [price, quantity] string pairs.
type bookMessage struct {
	Event     string      `json:"event"`
	MarketID  string      `json:"marketId"`
	Token     string      `json:"token"`
	Bids      [][2]string `json:"bids"`
	Asks      [][2]string `json:"asks"`
	Timestamp int64       `json:"timestamp"`
}

// parseLevels converts wire [price, quantity] string pairs into price levels.
func parseLevels(raw [][2]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", pair[0], err)
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", pair[1], err)
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

// toSnapshot converts a wire book message into a domain snapshot.
func toSnapshot(msg *bookMessage) (domain.OrderbookSnapshot, error) {
	bids, err := parseLevels(msg.Bids)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("feed: book %s bids: %w", msg.MarketID, err)
	}
	asks, err := parseLevels(msg.Asks)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("feed: book %s asks: %w", msg.MarketID, err)
	}
	return domain.OrderbookSnapshot{
		MarketID:  msg.MarketID,
		Token:     msg.Token,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.UnixMilli(msg.Timestamp).UTC(),
	}, nil
}

// decodeBook parses a raw frame if it is a book event. The second return is
// false for heartbeats, acks, and anything else.
func decodeBook(raw []byte) (*bookMessage, bool) {
	var msg bookMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	if msg.Event != "book" || msg.MarketID == "" {
		return nil, false
	}
	return &msg, true
}
