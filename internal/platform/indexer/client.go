// Package indexer is a GraphQL client for on-chain DEX subgraphs. It
// discovers the pools trading a token so they can be registered as markets.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is one on-chain liquidity pool as reported by the subgraph.
// Address is EIP-55 checksummed.
type Pool struct {
	Address    string
	Venue      string
	BaseToken  string
	QuoteToken string
	ReserveUSD float64
	CreatedAt  time.Time
}

// Client queries a subgraph indexer endpoint.
type Client struct {
	graphqlURL string
	venue      string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an indexer client for one venue's subgraph endpoint.
func NewClient(graphqlURL, venue, apiKey string) *Client {
	return &Client{
		graphqlURL: graphqlURL,
		venue:      venue,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchPools queries pools whose USD reserves meet minReserveUSD, limited by
// first. Pools with malformed addresses are skipped.
func (c *Client) FetchPools(ctx context.Context, minReserveUSD float64, first int) ([]Pool, error) {
	query := `
		query Pools($minReserve: BigDecimal!, $first: Int!) {
			pools(
				first: $first
				orderBy: totalValueLockedUSD
				orderDirection: desc
				where: { totalValueLockedUSD_gte: $minReserve }
			) {
				id
				token0 { symbol }
				token1 { symbol }
				totalValueLockedUSD
				createdAtTimestamp
			}
		}
	`
	variables := map[string]any{
		"minReserve": fmt.Sprintf("%f", minReserveUSD),
		"first":      first,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("indexer: fetch pools: %w", err)
	}

	var result struct {
		Pools []struct {
			ID     string `json:"id"`
			Token0 struct {
				Symbol string `json:"symbol"`
			} `json:"token0"`
			Token1 struct {
				Symbol string `json:"symbol"`
			} `json:"token1"`
			TotalValueLockedUSD string `json:"totalValueLockedUSD"`
			CreatedAtTimestamp  string `json:"createdAtTimestamp"`
		} `json:"pools"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("indexer: decode pools: %w", err)
	}

	pools := make([]Pool, 0, len(result.Pools))
	for _, p := range result.Pools {
		if !common.IsHexAddress(p.ID) {
			continue
		}

		var reserve float64
		fmt.Sscanf(p.TotalValueLockedUSD, "%f", &reserve)
		var ts int64
		fmt.Sscanf(p.CreatedAtTimestamp, "%d", &ts)

		pools = append(pools, Pool{
			Address:    common.HexToAddress(p.ID).Hex(),
			Venue:      c.venue,
			BaseToken:  p.Token0.Symbol,
			QuoteToken: p.Token1.Symbol,
			ReserveUSD: reserve,
			CreatedAt:  time.Unix(ts, 0).UTC(),
		})
	}
	return pools, nil
}

// FetchLatestBlock returns the latest block number the subgraph has indexed,
// for lag monitoring.
func (c *Client) FetchLatestBlock(ctx context.Context) (int64, error) {
	query := `
		query LatestBlock {
			_meta {
				block {
					number
				}
			}
		}
	`
	respData, err := c.doQuery(ctx, query, nil)
	if err != nil {
		return 0, fmt.Errorf("indexer: fetch latest block: %w", err)
	}

	var result struct {
		Meta struct {
			Block struct {
				Number int64 `json:"number"`
			} `json:"block"`
		} `json:"_meta"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return 0, fmt.Errorf("indexer: decode latest block: %w", err)
	}
	return result.Meta.Block.Number, nil
}

// doQuery executes one GraphQL request and returns the raw data field.
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(graphqlRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}
	return gqlResp.Data, nil
}
