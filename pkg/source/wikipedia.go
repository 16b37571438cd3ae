package source

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	wikiBaseURL  = "https://wikimedia.org/api/rest_v1/metrics/pageviews/top"
	wikiMinViews = 50_000
	wikiMaxScan  = 50
)

// wikiSkip matches utility and evergreen pages that always top the list.
var wikiSkip = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Main_Page$`),
	regexp.MustCompile(`(?i)^(Special|Wikipedia|Portal|File|Help|Category|Template|User|Talk):`),
	regexp.MustCompile(`(?i)^Deaths_in_`),
	regexp.MustCompile(`(?i)^List_of_`),
	regexp.MustCompile(`^\d{4}$`),
	regexp.MustCompile(`^[A-Z][a-z]+_\d{1,2}$`),
	regexp.MustCompile(`(?i)^(Bible|Google|YouTube|Facebook|ChatGPT|United_States|India)$`),
	regexp.MustCompile(`(?i)^(Pornhub|XNXX|XVideos)$`),
	regexp.MustCompile(`(?i)^XXX`),
}

var parenthetical = regexp.MustCompile(`\s*\([^)]+\)\s*`)

// Wikipedia reads yesterday's most-viewed English Wikipedia articles.
type Wikipedia struct {
	client  *Client
	baseURL string
	project string
	limit   int
	now     func() time.Time
}

// NewWikipedia creates a new most-read source.
func NewWikipedia(client *Client, baseURL, project string, limit int) *Wikipedia {
	if baseURL == "" {
		baseURL = wikiBaseURL
	}
	if project == "" {
		project = "en.wikipedia"
	}
	if limit <= 0 {
		limit = 30
	}
	return &Wikipedia{
		client:  client,
		baseURL: baseURL,
		project: project,
		limit:   limit,
		now:     time.Now,
	}
}

func (w *Wikipedia) Name() SourceID { return SourceWikipedia }

func (w *Wikipedia) Fetch(ctx context.Context) (*Batch, error) {
	// Today's ranking is usually not published yet.
	day := w.now().UTC().AddDate(0, 0, -1)
	url := fmt.Sprintf("%s/%s/all-access/%s", w.baseURL, w.project, day.Format("2006/01/02"))

	body, err := w.client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch wikipedia top: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode wikipedia top: malformed response")
	}

	var articles []RawItem
	gjson.GetBytes(body, "items.0.articles").ForEach(func(_, a gjson.Result) bool {
		name := a.Get("article").String()
		views := a.Get("views").Float()
		if name == "" || skipArticle(name) || views <= wikiMinViews {
			return true
		}
		articles = append(articles, RawItem{
			ID:     name,
			Source: SourceWikipedia,
			Title:  strings.ReplaceAll(name, "_", " "),
			URL:    "https://en.wikipedia.org/wiki/" + name,
			Score:  views,
		})
		return len(articles) < wikiMaxScan
	})

	topics := GroupArticles(articles, w.limit)
	candidates := make([]Candidate, 0, len(topics))
	for _, t := range topics {
		if c, ok := WikipediaCandidate(t); ok {
			candidates = append(candidates, c)
		}
	}
	return &Batch{Candidates: candidates}, nil
}

// GroupArticles merges articles whose titles differ only by a
// parenthetical disambiguator, sums their views and ranks the groups.
func GroupArticles(articles []RawItem, limit int) []WikiTopic {
	var order []string
	groups := make(map[string]*WikiTopic)

	for _, a := range articles {
		clean := strings.TrimSpace(parenthetical.ReplaceAllString(a.Title, " "))
		if len([]rune(clean)) <= 2 {
			continue
		}
		key := strings.ToLower(clean)
		g, ok := groups[key]
		if !ok {
			g = &WikiTopic{Title: clean, Category: ClassifyArticle(a.ID)}
			groups[key] = g
			order = append(order, key)
		}
		g.Views += a.Score
		g.Articles = append(g.Articles, a)
	}

	topics := make([]WikiTopic, 0, len(order))
	for _, key := range order {
		topics = append(topics, *groups[key])
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Views > topics[j].Views
	})
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	for i := range topics {
		topics[i].Rank = i + 1
	}
	return topics
}

func skipArticle(name string) bool {
	for _, p := range wikiSkip {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
