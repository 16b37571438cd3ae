package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		in   string
		want SourceID
		ok   bool
	}{
		{"wikipedia", SourceWikipedia, true},
		{" HackerNews ", SourceHackerNews, true},
		{"hn", SourceHackerNews, true},
		{"wiki", SourceWikipedia, true},
		{"dex", SourceDex, true},
		{"reddit", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSourceID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
