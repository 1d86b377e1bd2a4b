package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchPoolsChecksumsAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"pools":[
			{"id":"0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640",
			 "token0":{"symbol":"WETH"},"token1":{"symbol":"USDC"},
			 "totalValueLockedUSD":"123456.78","createdAtTimestamp":"1700000000"},
			{"id":"not-an-address",
			 "token0":{"symbol":"X"},"token1":{"symbol":"Y"},
			 "totalValueLockedUSD":"1","createdAtTimestamp":"1"}
		]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "uniswap", "")
	pools, err := c.FetchPools(context.Background(), 1000, 10)
	if err != nil {
		t.Fatalf("FetchPools: %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("pools = %d, want 1 with the malformed address dropped", len(pools))
	}
	p := pools[0]
	if p.Address != "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640" {
		t.Errorf("address = %s, want EIP-55 checksummed form", p.Address)
	}
	if p.BaseToken != "WETH" || p.QuoteToken != "USDC" {
		t.Errorf("pair = %s/%s, want WETH/USDC", p.BaseToken, p.QuoteToken)
	}
	if p.Venue != "uniswap" {
		t.Errorf("venue = %s, want uniswap", p.Venue)
	}
}

func TestFetchPoolsGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "uniswap", "")
	if _, err := c.FetchPools(context.Background(), 0, 10); err == nil {
		t.Fatal("FetchPools: want error on graphql errors payload")
	}
}
