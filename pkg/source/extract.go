package source

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minMentions = 2
	maxExamples = 3
)

// HackerNewsStopWords are dropped from story titles before counting.
var HackerNewsStopWords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "was",
	"one", "our", "has", "have", "been", "will", "your", "from", "they",
	"this", "that", "what", "with", "how", "why", "who", "when", "where",
	"which", "their", "about", "into", "than", "then", "them", "these",
	"some", "would", "there", "could", "other", "more", "just", "over",
	"also", "back", "most", "here", "much", "using", "show", "new",
}

// LemmyStopWords are dropped from forum post titles before counting.
var LemmyStopWords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "was",
	"one", "our", "has", "have", "been", "will", "your", "from", "they",
	"this", "that", "what", "with", "how", "why", "who", "when", "where",
	"which", "their", "about", "into", "than", "then", "them", "these",
	"some", "would", "there", "could", "other", "more", "just", "over",
	"also", "back", "most", "here", "much", "like", "people", "after",
	"being", "those", "should", "were", "said",
}

// Topic is a keyword candidate tallied from a batch of titles.
type Topic struct {
	Word       string    `json:"topic"`
	Mentions   int       `json:"mentions"`
	TotalScore float64   `json:"totalScore"`
	Examples   []RawItem `json:"items"`
}

// Extractor turns titles into ranked keyword topics.
type Extractor struct {
	// MinLength is exclusive: a token must be longer than this many runes.
	MinLength   int
	StopWords   map[string]bool
	DropNumeric bool
	TopN        int
}

// NewExtractor builds an extractor with a lower-cased stop-word set.
func NewExtractor(minLength, topN int, stopWords []string, dropNumeric bool) *Extractor {
	set := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = true
	}
	if topN <= 0 {
		topN = 20
	}
	return &Extractor{
		MinLength:   minLength,
		StopWords:   set,
		DropNumeric: dropNumeric,
		TopN:        topN,
	}
}

// Extract tallies tokens across items. Tokens mentioned fewer than twice are
// dropped; the rest are ordered by cumulative score, highest first.
func (e *Extractor) Extract(items []RawItem) []Topic {
	var order []string
	tallies := make(map[string]*tally)

	for i, item := range items {
		for _, word := range e.Tokens(item.Title) {
			t, ok := tallies[word]
			if !ok {
				t = &tally{lastItem: -1}
				tallies[word] = t
				order = append(order, word)
			}
			t.mentions++
			t.score += nonNegative(item.Score)
			if len(t.examples) < maxExamples && t.lastItem != i {
				t.examples = append(t.examples, item)
			}
			t.lastItem = i
		}
	}

	topics := make([]Topic, 0, len(order))
	for _, word := range order {
		t := tallies[word]
		if t.mentions < minMentions {
			continue
		}
		topics = append(topics, Topic{
			Word:       word,
			Mentions:   t.mentions,
			TotalScore: t.score,
			Examples:   t.examples,
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].TotalScore > topics[j].TotalScore
	})

	if len(topics) > e.TopN {
		topics = topics[:e.TopN]
	}
	return topics
}

// Tokens returns the surviving tokens of a single title, in order.
func (e *Extractor) Tokens(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !isWordRune(r)
	})

	var tokens []string
	for _, w := range words {
		if utf8.RuneCountInString(w) <= e.MinLength || e.StopWords[w] {
			continue
		}
		if e.DropNumeric && isNumeric(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

type tally struct {
	mentions int
	score    float64
	examples []RawItem
	lastItem int
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
