package source

import (
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeywordCandidate converts an extracted keyword topic into a candidate. The
// token is title-cased for display.
func KeywordCandidate(id SourceID, t Topic) (Candidate, bool) {
	word := strings.TrimSpace(t.Word)
	if word == "" {
		return Candidate{}, false
	}

	data := &KeywordData{
		Mentions: t.Mentions,
		Score:    nonNegative(t.TotalScore),
		Items:    t.Examples,
	}

	c := Candidate{
		Name:     cases.Title(language.English).String(word),
		Source:   id,
		Signal:   data.Score,
		Category: Categorize(word),
	}
	switch id {
	case SourceHackerNews:
		c.Data.HackerNews = data
	case SourceLemmy:
		c.Data.Lemmy = data
	default:
		return Candidate{}, false
	}
	return c, true
}

// KeywordCandidates converts a ranked topic list, dropping invalid entries.
func KeywordCandidates(id SourceID, topics []Topic) []Candidate {
	out := make([]Candidate, 0, len(topics))
	for _, t := range topics {
		if c, ok := KeywordCandidate(id, t); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParseCoin reads one CoinGecko trending entry ({"item": {...}}). Missing
// nested market data reads as zero; an entry without a name is rejected.
func ParseCoin(entry gjson.Result, rank int) (Candidate, bool) {
	item := entry.Get("item")
	if !item.Exists() {
		item = entry
	}

	name := strings.TrimSpace(item.Get("name").String())
	if name == "" {
		return Candidate{}, false
	}
	symbol := strings.ToUpper(strings.TrimSpace(item.Get("symbol").String()))

	data := &CryptoData{
		Rank:          rank,
		Symbol:        symbol,
		Price:         item.Get("data.price").Float(),
		Change24h:     item.Get("data.price_change_percentage_24h.usd").Float(),
		MarketCapRank: int(item.Get("market_cap_rank").Int()),
		Thumb:         item.Get("thumb").String(),
	}

	return Candidate{
		Name:     name,
		Symbol:   symbol,
		Source:   SourceCrypto,
		Signal:   float64(rank),
		Category: CategoryCrypto,
		Data:     Sources{Crypto: data},
	}, true
}

// ParsePool reads one GeckoTerminal trending pool. GeckoTerminal encodes
// numbers as strings; anything unparsable reads as zero. A pool without a
// base token name is rejected.
func ParsePool(pool gjson.Result, rank int) (Candidate, bool) {
	a := pool.Get("attributes")

	name := strings.TrimSpace(a.Get("base_token_name").String())
	if name == "" {
		return Candidate{}, false
	}
	symbol := strings.ToUpper(strings.TrimSpace(a.Get("base_token_symbol").String()))

	data := &DexData{
		Rank:      rank,
		Symbol:    symbol,
		Price:     nonNegative(a.Get("base_token_price_usd").Float()),
		Change24h: a.Get("price_change_percentage.h24").Float(),
		Volume:    nonNegative(a.Get("volume_usd.h24").Float()),
		Liquidity: nonNegative(a.Get("reserve_in_usd").Float()),
		Dex:       a.Get("dex_id").String(),
		Pool:      a.Get("name").String(),
	}
	if data.Dex == "" {
		data.Dex = pool.Get("relationships.dex.data.id").String()
	}

	return Candidate{
		Name:     name,
		Symbol:   symbol,
		Source:   SourceDex,
		Signal:   data.Volume,
		Category: CategoryCrypto,
		Data:     Sources{Dex: data},
	}, true
}

// WikiTopic is a most-read article group after title cleanup.
type WikiTopic struct {
	Title    string
	Views    float64
	Rank     int
	Category string
	Articles []RawItem
}

// WikipediaCandidate converts a grouped most-read article into a candidate.
func WikipediaCandidate(t WikiTopic) (Candidate, bool) {
	name := strings.TrimSpace(t.Title)
	if name == "" {
		return Candidate{}, false
	}
	views := nonNegative(t.Views)
	category := t.Category
	if category == "" {
		category = CategoryGeneral
	}

	return Candidate{
		Name:     name,
		Source:   SourceWikipedia,
		Signal:   views,
		Category: category,
		Data: Sources{Wikipedia: &WikipediaData{
			Views:    views,
			Rank:     t.Rank,
			Heat:     Heat(views),
			Articles: t.Articles,
		}},
	}, true
}

// Heat buckets a view count into a display temperature.
func Heat(views float64) int {
	switch {
	case views > 1_000_000:
		return 100
	case views > 500_000:
		return 85
	case views > 200_000:
		return 70
	case views > 100_000:
		return 55
	}
	return 40
}
