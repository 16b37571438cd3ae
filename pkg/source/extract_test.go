package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(titles ...string) []RawItem {
	out := make([]RawItem, len(titles))
	for i, t := range titles {
		out[i] = RawItem{ID: t, Title: t, Score: float64(10 * (i + 1))}
	}
	return out
}

func TestExtractDropsSingleMentions(t *testing.T) {
	ex := NewExtractor(2, 20, HackerNewsStopWords, true)
	topics := ex.Extract([]RawItem{
		{Title: "Rust compiler released", Score: 100},
		{Title: "Rust async improvements", Score: 50},
		{Title: "Zig release notes", Score: 10},
	})

	require.Len(t, topics, 1)
	assert.Equal(t, "rust", topics[0].Word)
	assert.Equal(t, 2, topics[0].Mentions)
	assert.Equal(t, 150.0, topics[0].TotalScore)
	assert.Len(t, topics[0].Examples, 2)
}

func TestExtractMentionThresholdHolds(t *testing.T) {
	ex := NewExtractor(2, 30, nil, true)
	topics := ex.Extract(items(
		"alpha beta gamma",
		"alpha delta",
		"beta epsilon alpha",
		"omega",
	))
	for _, tp := range topics {
		assert.GreaterOrEqual(t, tp.Mentions, 2, tp.Word)
		assert.NotEqual(t, "omega", tp.Word)
		assert.NotEqual(t, "gamma", tp.Word)
	}
	require.Len(t, topics, 2)
	assert.Equal(t, "alpha", topics[0].Word)
	assert.Equal(t, 3, topics[0].Mentions)
}

func TestExtractFiltersTokens(t *testing.T) {
	ex := NewExtractor(2, 20, HackerNewsStopWords, true)

	assert.Equal(t, []string{"election", "results"}, ex.Tokens("The 2024 election: results!"))
	assert.Equal(t, []string{"api"}, ex.Tokens("Go API"))
	assert.Empty(t, ex.Tokens("   "))
	assert.Empty(t, ex.Tokens(""))

	keepNumbers := NewExtractor(2, 20, nil, false)
	assert.Equal(t, []string{"2024"}, keepNumbers.Tokens("in 2024"))
}

func TestExtractCountsRepeatsWithinOneItem(t *testing.T) {
	ex := NewExtractor(2, 20, nil, true)
	topics := ex.Extract([]RawItem{{Title: "rust, rust and more rust", Score: 10}})

	require.Len(t, topics, 1)
	assert.Equal(t, "rust", topics[0].Word)
	assert.Equal(t, 3, topics[0].Mentions)
	assert.Equal(t, 30.0, topics[0].TotalScore)
	assert.Len(t, topics[0].Examples, 1)
}

func TestExtractKeepsAtMostThreeExamples(t *testing.T) {
	ex := NewExtractor(2, 20, nil, true)
	topics := ex.Extract(items("linux one", "linux two", "linux three", "linux four", "linux five"))

	require.NotEmpty(t, topics)
	assert.Equal(t, "linux", topics[0].Word)
	assert.Equal(t, 5, topics[0].Mentions)
	assert.Len(t, topics[0].Examples, 3)
	assert.Equal(t, "linux one", topics[0].Examples[0].Title)
}

func TestExtractOrdersByScoreAndTruncates(t *testing.T) {
	ex := NewExtractor(2, 2, nil, true)
	topics := ex.Extract([]RawItem{
		{Title: "apple banana cherry", Score: 1},
		{Title: "apple banana cherry", Score: 1},
		{Title: "cherry", Score: 10},
	})

	require.Len(t, topics, 2)
	assert.Equal(t, "cherry", topics[0].Word)
	// apple and banana tie; first seen wins
	assert.Equal(t, "apple", topics[1].Word)
}

func TestExtractIgnoresNegativeScores(t *testing.T) {
	ex := NewExtractor(2, 20, nil, true)
	topics := ex.Extract([]RawItem{
		{Title: "kernel panic", Score: -5},
		{Title: "kernel update", Score: 5},
	})
	require.Len(t, topics, 1)
	assert.Equal(t, 5.0, topics[0].TotalScore)
}
