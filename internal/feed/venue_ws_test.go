package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liquidlens/liquidlens/internal/domain"
)

func TestRunConnectionReportsCloseReason(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		// Consume the subscribe command, then close with a reason.
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "venue restart"), deadline)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	f := NewVenueFeed(wsURL, "uniswap", []string{"uniswap:0xabc"}, nil, nil, logger)

	err := f.runConnection(context.Background())
	if !errors.Is(err, domain.ErrWSDisconnect) {
		t.Fatalf("err = %v, want ErrWSDisconnect", err)
	}
	if !strings.Contains(err.Error(), "venue restart") {
		t.Errorf("err = %q, want the peer's close reason included", err)
	}
}
