package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrAllInstancesFailed is returned when no Lemmy instance responded.
var ErrAllInstancesFailed = errors.New("all lemmy instances failed")

// DefaultLemmyInstances are queried in order.
var DefaultLemmyInstances = []string{
	"https://lemmy.world",
	"https://lemmy.ml",
	"https://sh.itjust.works",
	"https://programming.dev",
}

// Lemmy extracts keyword topics from hot posts across several federated
// instances. Any instance that answers contributes posts.
type Lemmy struct {
	client    *Client
	instances []string
	perPage   int
	topItems  int
	extractor *Extractor
}

// NewLemmy creates a new Lemmy source.
func NewLemmy(client *Client, instances []string, perPage int, extractor *Extractor) *Lemmy {
	if len(instances) == 0 {
		instances = DefaultLemmyInstances
	}
	if perPage <= 0 {
		perPage = 25
	}
	if extractor == nil {
		extractor = NewExtractor(3, 20, LemmyStopWords, true)
	}
	return &Lemmy{
		client:    client,
		instances: instances,
		perPage:   perPage,
		topItems:  20,
		extractor: extractor,
	}
}

func (l *Lemmy) Name() SourceID { return SourceLemmy }

func (l *Lemmy) Fetch(ctx context.Context) (*Batch, error) {
	var (
		posts []RawItem
		errs  []error
	)
	for _, instance := range l.instances {
		got, err := l.fetchInstance(ctx, instance)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		posts = append(posts, got...)
	}
	if len(errs) == len(l.instances) {
		return nil, fmt.Errorf("%w: %w", ErrAllInstancesFailed, errors.Join(errs...))
	}

	posts = dedupeTitles(posts)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})

	items := posts
	if len(items) > l.topItems {
		items = items[:l.topItems]
	}

	var warnings []string
	for _, err := range errs {
		warnings = append(warnings, err.Error())
	}

	return &Batch{
		Candidates: KeywordCandidates(SourceLemmy, l.extractor.Extract(posts)),
		Items:      items,
		Warnings:   warnings,
	}, nil
}

func (l *Lemmy) fetchInstance(ctx context.Context, instance string) ([]RawItem, error) {
	q := url.Values{}
	q.Set("sort", "Hot")
	q.Set("type_", "All")
	q.Set("limit", strconv.Itoa(l.perPage))

	body, err := l.client.Get(ctx, strings.TrimRight(instance, "/")+"/api/v3/post/list?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("lemmy %s: %w", instance, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("lemmy %s: malformed response", instance)
	}

	var posts []RawItem
	gjson.GetBytes(body, "posts").ForEach(func(_, view gjson.Result) bool {
		title := strings.TrimSpace(view.Get("post.name").String())
		if title == "" {
			return true
		}
		link := view.Get("post.url").String()
		if link == "" {
			link = view.Get("post.ap_id").String()
		}
		posts = append(posts, RawItem{
			ID:        view.Get("post.id").String(),
			Source:    SourceLemmy,
			Title:     title,
			URL:       link,
			Score:     view.Get("counts.score").Float(),
			Comments:  int(view.Get("counts.comments").Int()),
			Community: view.Get("community.name").String(),
		})
		return true
	})
	return posts, nil
}

// dedupeTitles drops cross-posts, keyed on the first 50 lower-cased runes of
// the title.
func dedupeTitles(posts []RawItem) []RawItem {
	seen := make(map[string]bool, len(posts))
	out := posts[:0]
	for _, p := range posts {
		key := []rune(strings.ToLower(p.Title))
		if len(key) > 50 {
			key = key[:50]
		}
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		out = append(out, p)
	}
	return out
}
