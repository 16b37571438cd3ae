package source

import (
	"context"
	"strings"
)

// SourceID identifies which upstream a candidate came from.
type SourceID string

const (
	SourceWikipedia  SourceID = "wikipedia"
	SourceHackerNews SourceID = "hackernews"
	SourceLemmy      SourceID = "lemmy"
	SourceCrypto     SourceID = "crypto"
	SourceDex        SourceID = "dex"
)

// AllSourceIDs returns every known source in merge priority order.
func AllSourceIDs() []SourceID {
	return []SourceID{
		SourceWikipedia,
		SourceHackerNews,
		SourceLemmy,
		SourceCrypto,
		SourceDex,
	}
}

var sourceAliases = map[string]SourceID{
	"wiki":   SourceWikipedia,
	"hn":     SourceHackerNews,
	"coins":  SourceCrypto,
	"pools":  SourceDex,
	"forums": SourceLemmy,
}

// ParseSourceID resolves a source name or its short alias.
func ParseSourceID(s string) (SourceID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, id := range AllSourceIDs() {
		if string(id) == s {
			return id, true
		}
	}
	id, ok := sourceAliases[s]
	return id, ok
}

// RawItem is a single story, post or article as seen upstream.
type RawItem struct {
	ID        string   `json:"id,omitempty"`
	Source    SourceID `json:"source,omitempty"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	Score     float64  `json:"score"`
	Comments  int      `json:"comments,omitempty"`
	Community string   `json:"community,omitempty"`
}

// Candidate is a provisional topic from one source, before merging.
type Candidate struct {
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol,omitempty"`
	Source   SourceID `json:"source"`
	Signal   float64  `json:"signal"`
	Category string   `json:"category"`
	Data     Sources  `json:"data"`
}

// Batch is what a source hands to the engine for one aggregation pass.
type Batch struct {
	Candidates []Candidate `json:"candidates"`
	Items      []RawItem   `json:"items,omitempty"`
	// Warnings lists partial upstream failures that did not fail the fetch.
	Warnings []string `json:"warnings,omitempty"`
}

// Source is the interface every upstream fetcher must implement.
type Source interface {
	Name() SourceID
	Fetch(ctx context.Context) (*Batch, error)
}
