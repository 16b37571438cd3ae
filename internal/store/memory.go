package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/elonfeng/pulse/pkg/source"
)

type memoryEntry struct {
	payload   []byte
	fetchedAt time.Time
}

// MemoryCache is an in-process BatchCache for runs without a database.
// Entries vanish on restart; the alert log is not kept.
type MemoryCache struct {
	lru *expirable.LRU[source.SourceID, memoryEntry]
	now func() time.Time
}

var _ source.BatchCache = (*MemoryCache)(nil)

// NewMemoryCache holds one batch per source, evicted after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		lru: expirable.NewLRU[source.SourceID, memoryEntry](len(source.AllSourceIDs()), nil, ttl),
		now: time.Now,
	}
}

func (m *MemoryCache) GetBatch(_ context.Context, id source.SourceID, maxAge time.Duration) ([]byte, bool, error) {
	e, ok := m.lru.Get(id)
	if !ok || m.now().Sub(e.fetchedAt) > maxAge {
		return nil, false, nil
	}
	return append([]byte(nil), e.payload...), true, nil
}

func (m *MemoryCache) PutBatch(_ context.Context, id source.SourceID, payload []byte) error {
	m.lru.Add(id, memoryEntry{payload: append([]byte(nil), payload...), fetchedAt: m.now()})
	return nil
}
