package trend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/pulse/internal/metrics"
	"github.com/elonfeng/pulse/pkg/source"
)

const (
	defaultFetchTimeout = 20 * time.Second
	topContentPerSource = 10
	topContentMax       = 15
)

// ErrSourceNotConfigured is returned by FetchSource for a source the engine
// was not built with.
var ErrSourceNotConfigured = errors.New("source not configured")

// DefaultTimeouts bound each source fetch.
var DefaultTimeouts = map[source.SourceID]time.Duration{
	source.SourceWikipedia:  15 * time.Second,
	source.SourceHackerNews: 20 * time.Second,
	source.SourceLemmy:      30 * time.Second,
	source.SourceCrypto:     10 * time.Second,
	source.SourceDex:        10 * time.Second,
}

// Engine runs one aggregation pass per call: concurrent fetch, then a
// single-threaded merge, score and paginate.
type Engine struct {
	sources  []source.Source
	timeouts map[source.SourceID]time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine creates a new aggregation engine. Sources missing from timeouts
// use DefaultTimeouts.
func NewEngine(sources []source.Source, timeouts map[source.SourceID]time.Duration, logger zerolog.Logger) *Engine {
	merged := make(map[source.SourceID]time.Duration, len(DefaultTimeouts))
	for id, d := range DefaultTimeouts {
		merged[id] = d
	}
	for id, d := range timeouts {
		if d > 0 {
			merged[id] = d
		}
	}
	return &Engine{
		sources:  sources,
		timeouts: merged,
		logger:   logger,
		now:      time.Now,
	}
}

// Response is the aggregation result handed to presentation.
type Response struct {
	Success    bool                     `json:"success"`
	Timestamp  string                   `json:"timestamp"`
	Sources    map[source.SourceID]bool `json:"sources"`
	Pagination *Pagination              `json:"pagination,omitempty"`
	Topics     []*Topic                 `json:"topics"`
	TopContent []source.RawItem         `json:"topContent,omitempty"`
	Debug      *Debug                   `json:"debug"`
	Error      string                   `json:"error,omitempty"`
}

// Debug carries per-run diagnostics.
type Debug struct {
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings,omitempty"`
	WikipediaCount  int      `json:"wikipediaCount"`
	HackerNewsCount int      `json:"hackernewsCount"`
	LemmyCount      int      `json:"lemmyCount"`
	CryptoCount     int      `json:"cryptoCount"`
	DexCount        int      `json:"dexCount"`
	RunID           string   `json:"runId"`
	DurationMs      int64    `json:"durationMs"`
}

func (d *Debug) setCount(id source.SourceID, n int) {
	switch id {
	case source.SourceWikipedia:
		d.WikipediaCount = n
	case source.SourceHackerNews:
		d.HackerNewsCount = n
	case source.SourceLemmy:
		d.LemmyCount = n
	case source.SourceCrypto:
		d.CryptoCount = n
	case source.SourceDex:
		d.DexCount = n
	}
}

type fetchResult struct {
	id    source.SourceID
	batch *source.Batch
	err   error
}

// Aggregate fetches every source, merges and scores the candidates and
// returns the requested page. Source failures only mark that source
// unavailable. A failure in the merge, score or paginate stages yields an
// unsuccessful response together with an error.
func (e *Engine) Aggregate(ctx context.Context, req PageRequest) (resp *Response, err error) {
	start := e.now()
	debug := &Debug{Errors: []string{}, RunID: uuid.NewString()}
	resp = &Response{
		Timestamp: start.UTC().Format(time.RFC3339),
		Sources:   make(map[source.SourceID]bool, len(SourceOrder)),
		Topics:    []*Topic{},
		Debug:     debug,
	}
	for _, id := range SourceOrder {
		resp.Sources[id] = false
	}

	defer func() {
		elapsed := e.now().Sub(start)
		debug.DurationMs = elapsed.Milliseconds()
		metrics.AggregateDuration.Observe(elapsed.Seconds())

		if r := recover(); r != nil {
			err = fmt.Errorf("aggregate: %v", r)
			resp.Success = false
			resp.Error = err.Error()
			resp.Pagination = nil
			resp.Topics = []*Topic{}
			resp.TopContent = nil
			e.logger.Error().Str("run_id", debug.RunID).Err(err).Msg("aggregation failed")
		}
	}()

	results := e.collect(ctx)

	byID := make(map[source.SourceID]*source.Batch, len(results))
	for _, r := range results {
		if r.err != nil {
			debug.Errors = append(debug.Errors, fmt.Sprintf("%s: %v", r.id, r.err))
			e.logger.Warn().Str("run_id", debug.RunID).Str("source", string(r.id)).Err(r.err).Msg("source unavailable")
			continue
		}
		byID[r.id] = r.batch
		for _, w := range r.batch.Warnings {
			debug.Warnings = append(debug.Warnings, fmt.Sprintf("%s: %s", r.id, w))
		}
		debug.setCount(r.id, len(r.batch.Candidates))
		resp.Sources[r.id] = len(r.batch.Candidates) > 0
	}

	merger := NewMerger()
	for _, id := range SourceOrder {
		if b := byID[id]; b != nil {
			merger.AddAll(b.Candidates)
		}
	}

	topics := merger.Topics()
	for _, t := range topics {
		Score(t)
	}
	metrics.MergedTopics.Set(float64(len(topics)))

	window, pagination := Paginate(topics, req)
	resp.Topics = window
	resp.Pagination = &pagination
	if pagination.Page == 1 {
		resp.TopContent = topContent(byID)
	}
	resp.Success = true

	e.logger.Info().
		Str("run_id", debug.RunID).
		Int("topics", len(topics)).
		Int("failed_sources", len(debug.Errors)).
		Msg("aggregation complete")
	return resp, nil
}

// collect fetches every source concurrently. Every fetch settles into its own
// slot; no fetch can fail the batch.
func (e *Engine) collect(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(e.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range e.sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = e.fetch(gctx, src)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return priority(results[i].id) < priority(results[j].id)
	})
	return results
}

// Enabled returns the configured sources in merge order.
func (e *Engine) Enabled() []source.SourceID {
	ids := make([]source.SourceID, 0, len(e.sources))
	for _, src := range e.sources {
		ids = append(ids, src.Name())
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return priority(ids[i]) < priority(ids[j])
	})
	return ids
}

// Timeout returns the fetch bound for id.
func (e *Engine) Timeout(id source.SourceID) time.Duration {
	if d, ok := e.timeouts[id]; ok {
		return d
	}
	return defaultFetchTimeout
}

// FetchSource runs a single configured source under its timeout, with the
// same failure handling as Aggregate.
func (e *Engine) FetchSource(ctx context.Context, id source.SourceID) (*source.Batch, error) {
	for _, src := range e.sources {
		if src.Name() == id {
			res := e.fetch(ctx, src)
			return res.batch, res.err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSourceNotConfigured, id)
}

// fetch bounds one source by its timeout even when the fetcher ignores ctx;
// an abandoned fetch finishes in the background and its result is dropped.
func (e *Engine) fetch(ctx context.Context, src source.Source) (res fetchResult) {
	id := src.Name()
	timeout := e.Timeout(id)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.RecordFetch(string(id), res.err, time.Since(start).Seconds())
	}()

	done := make(chan fetchResult, 1)
	go func() {
		r := fetchResult{id: id}
		defer func() {
			if p := recover(); p != nil {
				r.batch, r.err = nil, fmt.Errorf("panic: %v", p)
			}
			done <- r
		}()
		r.batch, r.err = src.Fetch(ctx)
	}()

	select {
	case res = <-done:
	case <-ctx.Done():
		res = fetchResult{id: id, err: ctx.Err()}
	}

	if res.err == nil && res.batch == nil {
		res.batch = &source.Batch{}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) &&
		(res.err == nil || errors.Is(res.err, context.DeadlineExceeded)) {
		res.batch, res.err = nil, fmt.Errorf("timed out after %s", timeout)
	}
	return res
}

// topContent interleaves the top stories and posts of the keyword sources.
func topContent(batches map[source.SourceID]*source.Batch) []source.RawItem {
	var items []source.RawItem
	for _, id := range []source.SourceID{source.SourceHackerNews, source.SourceLemmy} {
		b := batches[id]
		if b == nil {
			continue
		}
		for i, it := range b.Items {
			if i == topContentPerSource {
				break
			}
			it.Source = id
			items = append(items, it)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > topContentMax {
		items = items[:topContentMax]
	}
	return items
}

func priority(id source.SourceID) int {
	for i, s := range SourceOrder {
		if s == id {
			return i
		}
	}
	return len(SourceOrder)
}
