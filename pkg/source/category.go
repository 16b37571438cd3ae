package source

import (
	"regexp"
	"strings"
)

// Categories assigned to candidates and merged topics.
const (
	CategoryCrypto        = "Crypto"
	CategoryAI            = "AI"
	CategoryPolitics      = "Politics"
	CategoryEconomics     = "Economics"
	CategoryTech          = "Tech"
	CategoryGaming        = "Gaming"
	CategorySports        = "Sports"
	CategoryEntertainment = "Entertainment"
	CategoryGeneral       = "General"
)

type categoryRule struct {
	category string
	pattern  *regexp.Regexp
}

// keywordRules classify single extracted tokens. First match wins.
var keywordRules = []categoryRule{
	{CategoryCrypto, regexp.MustCompile(`crypto|bitcoin|btc|ethereum|eth|solana|sol|token|coin|nft|defi|web3`)},
	{CategoryPolitics, regexp.MustCompile(`trump|biden|election|vote|congress|president|political|government`)},
	{CategoryEconomics, regexp.MustCompile(`stock|market|fed|rate|economy|inflation|nasdaq|dow|finance`)},
	{CategoryAI, regexp.MustCompile(`ai|gpt|openai|chatgpt|claude|llm|machine|learning|neural`)},
	{CategoryTech, regexp.MustCompile(`rust|python|javascript|react|code|programming|developer|github|software`)},
	{CategoryGaming, regexp.MustCompile(`game|gaming|steam|playstation|xbox|nintendo`)},
	{CategoryTech, regexp.MustCompile(`linux|windows|macos|android|ios|mobile`)},
}

// articleRules classify most-read encyclopedia titles. They run against the
// lower-cased title with underscores replaced by spaces.
var articleRules = []categoryRule{
	{CategoryEntertainment, regexp.MustCompile(`\(([^)]* )?(film|movie|tv series|series|miniseries)\)`)},
	{CategoryEntertainment, regexp.MustCompile(`season \d|episode`)},
	{CategoryEntertainment, regexp.MustCompile(`stranger things|netflix|disney|hbo|marvel|dc |star wars`)},
	{CategorySports, regexp.MustCompile(`nfl|nba|mlb|premier league|world cup|olympics|football|basketball|soccer|cricket|tennis`)},
	{CategorySports, regexp.MustCompile(`super bowl|championship|playoffs|match|game \d`)},
	{CategoryPolitics, regexp.MustCompile(`president|election|congress|senate|governor|minister|trump|biden|harris|political`)},
	{CategoryCrypto, regexp.MustCompile(`bitcoin|ethereum|crypto|stock|nasdaq|dow|sp 500|financial`)},
	{CategoryAI, regexp.MustCompile(`artificial intelligence|machine learning|openai|chatgpt|ai |tech|software|apple|google|microsoft`)},
	{CategoryEntertainment, regexp.MustCompile(`\(([^)]* )?(singer|band|musician|rapper)\)|album|song|music|concert|tour`)},
	{CategoryEntertainment, regexp.MustCompile(`\(([^)]* )?(actor|actress|model|celebrity)\)`)},
}

// Categorize assigns a category to an extracted keyword.
func Categorize(word string) string {
	return classify(keywordRules, strings.ToLower(word))
}

// ClassifyArticle assigns a category to an encyclopedia article title such as
// "Wicked_(2024_film)".
func ClassifyArticle(title string) string {
	t := strings.ToLower(strings.ReplaceAll(title, "_", " "))
	return classify(articleRules, t)
}

func classify(rules []categoryRule, text string) string {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.category
		}
	}
	return CategoryGeneral
}
