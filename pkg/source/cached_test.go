package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[SourceID][]byte
	getErr  error
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[SourceID][]byte)}
}

func (m *memoryCache) GetBatch(_ context.Context, id SourceID, _ time.Duration) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	p, ok := m.entries[id]
	return p, ok, nil
}

func (m *memoryCache) PutBatch(_ context.Context, id SourceID, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = payload
	m.puts++
	return nil
}

type countingSource struct {
	id    SourceID
	calls int
	batch *Batch
	err   error
}

func (c *countingSource) Name() SourceID { return c.id }

func (c *countingSource) Fetch(context.Context) (*Batch, error) {
	c.calls++
	return c.batch, c.err
}

func TestCachedServesSecondFetchFromCache(t *testing.T) {
	inner := &countingSource{id: SourceCrypto, batch: &Batch{Candidates: []Candidate{{
		Name:   "Solana",
		Symbol: "SOL",
		Source: SourceCrypto,
		Data:   Sources{Crypto: &CryptoData{Rank: 2, Symbol: "SOL"}},
	}}}}
	cache := newMemoryCache()
	src := NewCached(inner, cache, time.Minute, zerolog.Nop())
	assert.Equal(t, SourceCrypto, src.Name())

	first, err := src.Fetch(context.Background())
	require.NoError(t, err)
	second, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, first.Candidates[0].Name, second.Candidates[0].Name)
	require.NotNil(t, second.Candidates[0].Data.Crypto)
	assert.Equal(t, 2, second.Candidates[0].Data.Crypto.Rank)
	assert.Nil(t, second.Candidates[0].Data.Dex)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	inner := &countingSource{id: SourceDex, err: errors.New("boom")}
	cache := newMemoryCache()
	src := NewCached(inner, cache, time.Minute, zerolog.Nop())

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Zero(t, cache.puts)
}

func TestCachedFallsThroughOnCacheError(t *testing.T) {
	inner := &countingSource{id: SourceLemmy, batch: &Batch{}}
	cache := newMemoryCache()
	cache.getErr = errors.New("locked")
	src := NewCached(inner, cache, time.Minute, zerolog.Nop())

	_, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestNewCachedDisabled(t *testing.T) {
	inner := &countingSource{id: SourceWikipedia}
	assert.Same(t, Source(inner), NewCached(inner, newMemoryCache(), 0, zerolog.Nop()))
	assert.Same(t, Source(inner), NewCached(inner, nil, time.Minute, zerolog.Nop()))
}
