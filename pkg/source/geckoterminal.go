package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

const geckoTerminalBaseURL = "https://api.geckoterminal.com/api/v2"

// GeckoTerminal reads trending decentralized-exchange pools on one network.
type GeckoTerminal struct {
	client  *Client
	baseURL string
	network string
	limit   int
}

// NewGeckoTerminal creates a new trending-pool source.
func NewGeckoTerminal(client *Client, baseURL, network string, limit int) *GeckoTerminal {
	if baseURL == "" {
		baseURL = geckoTerminalBaseURL
	}
	if network == "" {
		network = "solana"
	}
	if limit <= 0 {
		limit = 10
	}
	return &GeckoTerminal{
		client:  client,
		baseURL: baseURL,
		network: network,
		limit:   limit,
	}
}

func (g *GeckoTerminal) Name() SourceID { return SourceDex }

func (g *GeckoTerminal) Fetch(ctx context.Context) (*Batch, error) {
	endpoint := fmt.Sprintf("%s/networks/%s/trending_pools", g.baseURL, url.PathEscape(g.network))
	body, err := g.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch geckoterminal trending: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode geckoterminal trending: malformed response")
	}

	var candidates []Candidate
	for i, pool := range gjson.GetBytes(body, "data").Array() {
		if cand, ok := ParsePool(pool, i+1); ok {
			candidates = append(candidates, cand)
		}
		if len(candidates) == g.limit {
			break
		}
	}
	return &Batch{Candidates: candidates}, nil
}
