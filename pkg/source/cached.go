package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// BatchCache stores the last successful batch per source.
type BatchCache interface {
	GetBatch(ctx context.Context, id SourceID, maxAge time.Duration) ([]byte, bool, error)
	PutBatch(ctx context.Context, id SourceID, payload []byte) error
}

// Cached serves a source's last batch while it is younger than ttl. Only
// upstream responses are reused; merging and scoring still run per request.
type Cached struct {
	inner  Source
	cache  BatchCache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCached wraps inner. A non-positive ttl returns inner unchanged.
func NewCached(inner Source, cache BatchCache, ttl time.Duration, logger zerolog.Logger) Source {
	if cache == nil || ttl <= 0 {
		return inner
	}
	return &Cached{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Name() SourceID { return c.inner.Name() }

func (c *Cached) Fetch(ctx context.Context) (*Batch, error) {
	id := c.inner.Name()

	payload, ok, err := c.cache.GetBatch(ctx, id, c.ttl)
	if err != nil {
		c.logger.Warn().Err(err).Str("source", string(id)).Msg("cache read failed")
	} else if ok {
		var b Batch
		if err := json.Unmarshal(payload, &b); err == nil {
			return &b, nil
		}
		c.logger.Warn().Str("source", string(id)).Msg("discarding undecodable cache entry")
	}

	b, err := c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(b); err == nil {
		if err := c.cache.PutBatch(ctx, id, payload); err != nil {
			c.logger.Warn().Err(err).Str("source", string(id)).Msg("cache write failed")
		}
	}
	return b, nil
}
