package trend

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/elonfeng/pulse/pkg/source"
)

// SourceOrder is the merge priority. Earlier sources win the canonical name
// and ticker when several describe the same topic, so reordering this list
// changes output.
var SourceOrder = source.AllSourceIDs()

// minMatchLen is the rune length a normalized name must exceed before
// substring matching applies.
const minMatchLen = 3

// Topic is a merged, scored cross-source topic.
type Topic struct {
	Name          string         `json:"topic"`
	Ticker        string         `json:"ticker"`
	Sources       source.Sources `json:"sources"`
	Category      string         `json:"category"`
	CrossPlatform bool           `json:"crossPlatform"`
	LaunchScore   int            `json:"launchScore"`
	Label         Label          `json:"launchLabel"`
	Velocity      int            `json:"velocity"`
	SourceCount   int            `json:"sourceCount"`

	key string
}

// Key returns the normalized name the topic was inserted under.
func (t *Topic) Key() string { return t.key }

// NormalizeKey lower-cases name and strips everything but letters and digits.
func NormalizeKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TopicsMatch reports whether two names describe the same topic: one
// normalized name contains the other and both are longer than three runes,
// or the names are equal ignoring case.
//
// This is a heuristic and will join unrelated names sharing a long enough
// substring ("Mars" and "Marsh").
func TopicsMatch(a, b string) bool {
	na, nb := NormalizeKey(a), NormalizeKey(b)
	if utf8.RuneCountInString(na) > minMatchLen && utf8.RuneCountInString(nb) > minMatchLen {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return true
		}
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// GenerateTicker builds "$" plus the first six upper-cased letters or digits
// of name.
func GenerateTicker(name string) string {
	var b strings.Builder
	b.WriteByte('$')
	n := 0
	for _, r := range strings.ToUpper(name) {
		if n == 6 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

// Merger folds candidates into topics. It is single-threaded and must be fed
// in SourceOrder.
type Merger struct {
	topics []*Topic
	byKey  map[string]*Topic
	match  func(a, b string) bool
}

// NewMerger creates an empty merger using TopicsMatch.
func NewMerger() *Merger {
	return &Merger{
		byKey: make(map[string]*Topic),
		match: TopicsMatch,
	}
}

// Add merges c into the first existing topic it matches, or inserts a new
// topic. It reports whether a new topic was created.
func (m *Merger) Add(c source.Candidate) bool {
	if existing := m.find(c); existing != nil {
		m.mergeInto(existing, c)
		return false
	}

	key := NormalizeKey(c.Name)
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(c.Name))
	}
	if existing, ok := m.byKey[key]; ok && !existing.Sources.Has(c.Source) {
		// Same normalized key but too short to substring-match, e.g. "A.I."
		// and "AI".
		m.mergeInto(existing, c)
		return false
	}
	if _, taken := m.byKey[key]; taken {
		key = string(c.Source) + ":" + key
	}

	ticker := GenerateTicker(c.Name)
	if c.Symbol != "" {
		ticker = "$" + strings.ToUpper(c.Symbol)
	}
	category := c.Category
	if category == "" {
		category = source.CategoryGeneral
	}

	t := &Topic{
		Name:     c.Name,
		Ticker:   ticker,
		Sources:  c.Data,
		Category: category,
		key:      key,
	}
	m.refresh(t)
	m.topics = append(m.topics, t)
	m.byKey[key] = t
	return true
}

// AddAll merges candidates in the order given.
func (m *Merger) AddAll(cs []source.Candidate) {
	for _, c := range cs {
		m.Add(c)
	}
}

// Topics returns merged topics in insertion order.
func (m *Merger) Topics() []*Topic {
	return m.topics
}

// Len returns the number of merged topics.
func (m *Merger) Len() int { return len(m.topics) }

// find scans topics in insertion order. Topics that already hold a payload
// from c's source are skipped unless the names are identical, so one source
// never overwrites itself and a name always resolves to its own entry.
func (m *Merger) find(c source.Candidate) *Topic {
	for _, t := range m.topics {
		if t.Sources.Has(c.Source) {
			if strings.EqualFold(t.Name, c.Name) {
				return t
			}
			continue
		}
		if m.match(t.Name, c.Name) {
			return t
		}
	}
	return nil
}

func (m *Merger) mergeInto(t *Topic, c source.Candidate) {
	t.Sources.Absorb(c.Data)

	switch {
	case c.Source == source.SourceCrypto:
		t.Category = source.CategoryCrypto
	case c.Source == source.SourceDex:
		// lowest priority: payload only
	case t.Category == source.CategoryGeneral && c.Category != "":
		t.Category = c.Category
	}
	m.refresh(t)
}

func (m *Merger) refresh(t *Topic) {
	t.SourceCount = t.Sources.Count()
	t.CrossPlatform = t.SourceCount >= 2
}
