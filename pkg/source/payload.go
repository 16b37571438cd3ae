package source

// Sources carries at most one payload per upstream. Exactly one field is set
// on a Candidate; a merged topic accumulates several.
type Sources struct {
	Wikipedia  *WikipediaData `json:"wikipedia,omitempty"`
	HackerNews *KeywordData   `json:"hackernews,omitempty"`
	Lemmy      *KeywordData   `json:"lemmy,omitempty"`
	Crypto     *CryptoData    `json:"crypto,omitempty"`
	Dex        *DexData       `json:"dex,omitempty"`
}

// WikipediaData is the most-read article payload.
type WikipediaData struct {
	Views    float64   `json:"views"`
	Rank     int       `json:"rank"`
	Heat     int       `json:"heat"`
	Articles []RawItem `json:"articles,omitempty"`
}

// KeywordData is the payload of a token extracted from story or post titles.
type KeywordData struct {
	Mentions int       `json:"mentions"`
	Score    float64   `json:"score"`
	Items    []RawItem `json:"items,omitempty"`
}

// CryptoData is the trending coin payload.
type CryptoData struct {
	Rank          int     `json:"rank"`
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change24h     float64 `json:"change24h"`
	MarketCapRank int     `json:"marketCapRank,omitempty"`
	Thumb         string  `json:"thumb,omitempty"`
}

// DexData is the trending pool payload.
type DexData struct {
	Rank      int     `json:"rank"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume    float64 `json:"volume"`
	Liquidity float64 `json:"liquidity"`
	Dex       string  `json:"dex,omitempty"`
	Pool      string  `json:"pool,omitempty"`
}

// Count returns the number of sources with a payload.
func (s Sources) Count() int {
	n := 0
	for _, id := range AllSourceIDs() {
		if s.Has(id) {
			n++
		}
	}
	return n
}

// Has reports whether a payload for id is present.
func (s Sources) Has(id SourceID) bool {
	switch id {
	case SourceWikipedia:
		return s.Wikipedia != nil
	case SourceHackerNews:
		return s.HackerNews != nil
	case SourceLemmy:
		return s.Lemmy != nil
	case SourceCrypto:
		return s.Crypto != nil
	case SourceDex:
		return s.Dex != nil
	}
	return false
}

// Absorb copies every payload of o that s does not carry yet. Existing
// payloads are never replaced.
func (s *Sources) Absorb(o Sources) {
	if s.Wikipedia == nil {
		s.Wikipedia = o.Wikipedia
	}
	if s.HackerNews == nil {
		s.HackerNews = o.HackerNews
	}
	if s.Lemmy == nil {
		s.Lemmy = o.Lemmy
	}
	if s.Crypto == nil {
		s.Crypto = o.Crypto
	}
	if s.Dex == nil {
		s.Dex = o.Dex
	}
}
