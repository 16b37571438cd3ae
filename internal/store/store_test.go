package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/pulse/pkg/source"
)

func newTestStore(t *testing.T) (*SQLiteStore, *time.Time) {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "pulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestBatchCache(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStore(t)

	_, ok, err := s.GetBatch(ctx, source.SourceWikipedia, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutBatch(ctx, source.SourceWikipedia, []byte(`{"candidates":[]}`)))

	payload, ok, err := s.GetBatch(ctx, source.SourceWikipedia, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"candidates":[]}`, string(payload))

	// Other sources are independent.
	_, ok, err = s.GetBatch(ctx, source.SourceDex, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	*now = now.Add(2 * time.Minute)
	_, ok, err = s.GetBatch(ctx, source.SourceWikipedia, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "entry older than maxAge must miss")

	require.NoError(t, s.PutBatch(ctx, source.SourceWikipedia, []byte(`{"items":[]}`)))
	payload, ok, err = s.GetBatch(ctx, source.SourceWikipedia, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"items":[]}`, string(payload))
}

func TestAlertLog(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStore(t)
	start := *now

	seen, err := s.AlertedSince(ctx, "solana", start.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.RecordAlert(ctx, "solana", 90))

	seen, err = s.AlertedSince(ctx, "solana", start.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.AlertedSince(ctx, "solana", start.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, seen)

	*now = start.Add(3 * time.Hour)
	require.NoError(t, s.RecordAlert(ctx, "taylorswift", 88))
	require.NoError(t, s.RecordAlert(ctx, "solana", 95))

	recs, err := s.ListAlerts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	byKey := map[string]AlertRecord{}
	for _, r := range recs {
		byKey[r.TopicKey] = r
	}
	assert.Equal(t, 95, byKey["solana"].LaunchScore)
	assert.Equal(t, 88, byKey["taylorswift"].LaunchScore)
}

func TestPruneAlerts(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStore(t)
	start := *now

	require.NoError(t, s.RecordAlert(ctx, "old", 85))
	*now = start.Add(7 * time.Hour)
	require.NoError(t, s.RecordAlert(ctx, "fresh", 92))

	n, err := s.PruneAlerts(ctx, now.Add(-6*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	recs, err := s.ListAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "fresh", recs[0].TopicKey)
}

func TestCachedSourceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	batch := &source.Batch{Candidates: []source.Candidate{{
		Name:     "Solana",
		Symbol:   "SOL",
		Source:   source.SourceCrypto,
		Category: source.CategoryCrypto,
		Data:     source.Sources{Crypto: &source.CryptoData{Rank: 1, Symbol: "SOL"}},
	}}}
	inner := &fixedSource{batch: batch}
	cached := source.NewCached(inner, s, time.Minute, zerolog.Nop())

	first, err := cached.Fetch(ctx)
	require.NoError(t, err)
	second, err := cached.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	require.Len(t, second.Candidates, 1)
	assert.Equal(t, first.Candidates[0].Name, second.Candidates[0].Name)
	assert.Equal(t, 1, second.Candidates[0].Data.Crypto.Rank)
}

type fixedSource struct {
	batch *source.Batch
	calls int
}

func (f *fixedSource) Name() source.SourceID { return source.SourceCrypto }

func (f *fixedSource) Fetch(context.Context) (*source.Batch, error) {
	f.calls++
	return f.batch, nil
}
