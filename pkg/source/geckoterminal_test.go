package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trendingPools = `{"data":[
	{"id":"solana_1","type":"pool","attributes":{"name":"BONK / SOL","base_token_name":"Bonk","base_token_symbol":"BONK","base_token_price_usd":"0.00002","volume_usd":{"h24":"2500000"},"reserve_in_usd":"800000","price_change_percentage":{"h24":"8.1"}},"relationships":{"dex":{"data":{"id":"raydium"}}}},
	{"id":"solana_2","type":"pool","attributes":{"name":"WIF / SOL","base_token_name":"dogwifhat","base_token_symbol":"WIF","volume_usd":{"h24":"90000"}}}
]}`

func TestGeckoTerminalFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/solana/trending_pools", r.URL.Path)
		fmt.Fprint(w, trendingPools)
	}))
	defer srv.Close()

	batch, err := NewGeckoTerminal(testClient(), srv.URL, "", 10).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Candidates, 2)

	bonk := batch.Candidates[0]
	assert.Equal(t, "Bonk", bonk.Name)
	assert.Equal(t, SourceDex, bonk.Source)
	assert.Equal(t, 2_500_000.0, bonk.Data.Dex.Volume)
	assert.Equal(t, "raydium", bonk.Data.Dex.Dex)
	assert.Equal(t, 1, bonk.Data.Dex.Rank)

	assert.Equal(t, "dogwifhat", batch.Candidates[1].Name)
	assert.Equal(t, 2, batch.Candidates[1].Data.Dex.Rank)
}

func TestGeckoTerminalNetworkAndLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/base/trending_pools", r.URL.Path)
		fmt.Fprint(w, trendingPools)
	}))
	defer srv.Close()

	batch, err := NewGeckoTerminal(testClient(), srv.URL, "base", 1).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Candidates, 1)
}
