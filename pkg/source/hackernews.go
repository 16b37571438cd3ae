package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/mmcdole/gofeed"
)

const (
	hnBaseURL               = "https://hacker-news.firebaseio.com/v0"
	DefaultHackerNewsRSSURL = "https://hnrss.org/frontpage?count=30"
)

// HackerNews extracts keyword topics from the Hacker News front page.
// When the Firebase API is unreachable it falls back to the hnrss.org feed.
type HackerNews struct {
	client    *Client
	baseURL   string
	rssURL    string
	limit     int
	topItems  int
	extractor *Extractor
	parser    *gofeed.Parser
}

// NewHackerNews creates a new HN source. An empty rssURL disables the
// feed fallback.
func NewHackerNews(client *Client, baseURL, rssURL string, limit int, extractor *Extractor) *HackerNews {
	if baseURL == "" {
		baseURL = hnBaseURL
	}
	if limit <= 0 {
		limit = 30
	}
	if extractor == nil {
		extractor = NewExtractor(2, 20, HackerNewsStopWords, true)
	}
	return &HackerNews{
		client:    client,
		baseURL:   baseURL,
		rssURL:    rssURL,
		limit:     limit,
		topItems:  15,
		extractor: extractor,
		parser:    gofeed.NewParser(),
	}
}

func (h *HackerNews) Name() SourceID { return SourceHackerNews }

func (h *HackerNews) Fetch(ctx context.Context) (*Batch, error) {
	stories, err := h.fetchStories(ctx)
	if err != nil {
		if h.rssURL == "" {
			return nil, err
		}
		var rssErr error
		stories, rssErr = h.fetchFeed(ctx)
		if rssErr != nil {
			return nil, fmt.Errorf("%w (rss fallback: %v)", err, rssErr)
		}
	}

	items := stories
	if len(items) > h.topItems {
		items = items[:h.topItems]
	}

	return &Batch{
		Candidates: KeywordCandidates(SourceHackerNews, h.extractor.Extract(stories)),
		Items:      items,
	}, nil
}

type hnStory struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Type        string `json:"type"`
}

func (h *HackerNews) fetchStories(ctx context.Context) ([]RawItem, error) {
	body, err := h.client.Get(ctx, h.baseURL+"/topstories.json", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch hn top stories: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode hn top stories: %w", err)
	}
	if len(ids) > h.limit {
		ids = ids[:h.limit]
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, 10) // concurrency limit
		results = make([]*hnStory, len(ids))
		errs    = make([]error, len(ids))
	)

	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i], errs[i] = h.fetchItem(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var items []RawItem
	for _, s := range results {
		if s == nil || s.Title == "" || s.Score == 0 {
			continue
		}
		url := s.URL
		if url == "" {
			url = hnDiscussionURL(s.ID)
		}
		items = append(items, RawItem{
			ID:       strconv.Itoa(s.ID),
			Source:   SourceHackerNews,
			Title:    s.Title,
			URL:      url,
			Score:    float64(s.Score),
			Comments: s.Descendants,
		})
	}
	// Individual failures are tolerated; losing every item is not.
	if len(items) == 0 {
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("fetch hn items: %w", err)
		}
	}
	return items, nil
}

func (h *HackerNews) fetchItem(ctx context.Context, id int) (*hnStory, error) {
	body, err := h.client.Get(ctx, fmt.Sprintf("%s/item/%d.json", h.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch hn item %d: %w", id, err)
	}

	var story hnStory
	if err := json.Unmarshal(body, &story); err != nil {
		return nil, fmt.Errorf("decode hn item %d: %w", id, err)
	}
	return &story, nil
}

var (
	hnPointsRe   = regexp.MustCompile(`Points:\s*(\d+)`)
	hnCommentsRe = regexp.MustCompile(`# Comments:\s*(\d+)`)
)

// fetchFeed reads the front page from hnrss, which embeds points and
// comment counts in each entry's description.
func (h *HackerNews) fetchFeed(ctx context.Context) ([]RawItem, error) {
	body, err := h.client.Get(ctx, h.rssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch hn rss: %w", err)
	}

	feed, err := h.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse hn rss: %w", err)
	}

	var items []RawItem
	for _, entry := range feed.Items {
		points := submatchInt(hnPointsRe, entry.Description)
		if entry.Title == "" || points == 0 {
			continue
		}
		items = append(items, RawItem{
			ID:       entry.GUID,
			Source:   SourceHackerNews,
			Title:    entry.Title,
			URL:      entry.Link,
			Score:    float64(points),
			Comments: submatchInt(hnCommentsRe, entry.Description),
		})
		if len(items) == h.limit {
			break
		}
	}
	return items, nil
}

func submatchInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func hnDiscussionURL(id int) string {
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
}
