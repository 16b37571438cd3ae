package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko reads the trending-coin search list.
type CoinGecko struct {
	client  *Client
	baseURL string
	apiKey  string
	limit   int
}

// NewCoinGecko creates a new trending-coin source. apiKey is optional and
// only lifts the public rate limit.
func NewCoinGecko(client *Client, baseURL, apiKey string, limit int) *CoinGecko {
	if baseURL == "" {
		baseURL = coinGeckoBaseURL
	}
	if limit <= 0 {
		limit = 10
	}
	return &CoinGecko{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		limit:   limit,
	}
}

func (c *CoinGecko) Name() SourceID { return SourceCrypto }

func (c *CoinGecko) Fetch(ctx context.Context) (*Batch, error) {
	var header http.Header
	if c.apiKey != "" {
		header = http.Header{"x-cg-demo-api-key": {c.apiKey}}
	}

	body, err := c.client.Get(ctx, c.baseURL+"/search/trending", header)
	if err != nil {
		return nil, fmt.Errorf("fetch coingecko trending: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode coingecko trending: malformed response")
	}

	var candidates []Candidate
	for i, entry := range gjson.GetBytes(body, "coins").Array() {
		// Rank is the position in the trending list, not market cap rank.
		if cand, ok := ParseCoin(entry, i+1); ok {
			candidates = append(candidates, cand)
		}
		if len(candidates) == c.limit {
			break
		}
	}
	return &Batch{Candidates: candidates}, nil
}
