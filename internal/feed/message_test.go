package feed

import (
	"testing"
)

func TestDecodeBook(t *testing.T) {
	raw := []byte(`{
		"event": "book",
		"marketId": "uniswap:0xabc",
		"token": "WETH",
		"bids": [["100.5", "10"], ["100.0", "20"]],
		"asks": [["101.0", "5"]],
		"timestamp": 1700000000000
	}`)

	msg, ok := decodeBook(raw)
	if !ok {
		t.Fatal("decodeBook: book frame not recognized")
	}
	snap, err := toSnapshot(msg)
	if err != nil {
		t.Fatalf("toSnapshot: %v", err)
	}
	if snap.MarketID != "uniswap:0xabc" || snap.Token != "WETH" {
		t.Errorf("identity = %s/%s, want uniswap:0xabc/WETH", snap.MarketID, snap.Token)
	}
	if len(snap.Bids) != 2 || snap.Bids[0].Price != 100.5 || snap.Bids[0].Quantity != 10 {
		t.Errorf("bids = %+v, want parsed levels", snap.Bids)
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Price != 101.0 {
		t.Errorf("asks = %+v, want one level at 101", snap.Asks)
	}
	if snap.Timestamp.UnixMilli() != 1700000000000 {
		t.Errorf("timestamp = %v, want unix millis preserved", snap.Timestamp)
	}
}

func TestDecodeBookIgnoresOtherFrames(t *testing.T) {
	for _, raw := range []string{
		`{"event":"heartbeat"}`,
		`{"event":"book"}`,
		`not json`,
	} {
		if _, ok := decodeBook([]byte(raw)); ok {
			t.Errorf("decodeBook(%q) accepted, want rejection", raw)
		}
	}
}

func TestToSnapshotRejectsBadNumbers(t *testing.T) {
	msg := &bookMessage{
		Event:    "book",
		MarketID: "m",
		Bids:     [][2]string{{"abc", "1"}},
	}
	if _, err := toSnapshot(msg); err == nil {
		t.Fatal("toSnapshot: want error for unparseable price")
	}
}
