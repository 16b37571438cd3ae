package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesAbsorbKeepsExistingPayloads(t *testing.T) {
	s := Sources{HackerNews: &KeywordData{Score: 10}}
	s.Absorb(Sources{
		HackerNews: &KeywordData{Score: 999},
		Crypto:     &CryptoData{Rank: 1},
	})

	assert.Equal(t, 10.0, s.HackerNews.Score)
	require.NotNil(t, s.Crypto)
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Has(SourceCrypto))
	assert.False(t, s.Has(SourceDex))
	assert.False(t, s.Has(SourceID("unknown")))
}

func TestSourcesJSONOmitsMissingPayloads(t *testing.T) {
	data, err := json.Marshal(Sources{Dex: &DexData{Symbol: "BONK", Volume: 5}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dex":{"rank":0,"symbol":"BONK","price":0,"change24h":0,"volume":5,"liquidity":0}}`, string(data))
}
