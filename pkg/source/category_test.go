package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"bitcoin", CategoryCrypto},
		{"Solana", CategoryCrypto},
		{"trump", CategoryPolitics},
		{"inflation", CategoryEconomics},
		{"openai", CategoryAI},
		{"python", CategoryTech},
		{"nintendo", CategoryGaming},
		{"linux", CategoryTech},
		{"banana", CategoryGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.word))
		})
	}
}

func TestClassifyArticle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Wicked_(2024_film)", CategoryEntertainment},
		{"The_Bear_(TV_series)", CategoryEntertainment},
		{"Stranger_Things_season_5", CategoryEntertainment},
		{"Super_Bowl_LIX", CategorySports},
		{"2026_FIFA_World_Cup", CategorySports},
		{"Donald_Trump", CategoryPolitics},
		{"Bitcoin", CategoryCrypto},
		{"Sabrina_Carpenter_(singer)", CategoryEntertainment},
		{"Albert_Einstein", CategoryGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyArticle(tt.title))
		})
	}
}
