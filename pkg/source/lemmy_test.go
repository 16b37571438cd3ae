package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lemmyPosts = `{"posts":[
	{"post":{"id":1,"name":"Linux kernel update lands","url":"https://example.com/kernel"},"counts":{"score":300,"comments":4},"community":{"name":"linux"}},
	{"post":{"id":2,"name":"Linux desktop market share","ap_id":"https://lemmy.example/post/2"},"counts":{"score":100,"comments":2},"community":{"name":"linux"}},
	{"post":{"id":3,"name":""},"counts":{"score":900}}
]}`

func lemmyServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/post/list", r.URL.Path)
		assert.Equal(t, "Hot", r.URL.Query().Get("sort"))
		if status != http.StatusOK {
			http.Error(w, "down", status)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLemmyFetch(t *testing.T) {
	down := lemmyServer(t, http.StatusBadGateway, "")
	up := lemmyServer(t, http.StatusOK, lemmyPosts)
	mirror := lemmyServer(t, http.StatusOK, lemmyPosts)

	l := NewLemmy(testClient(), []string{down.URL, up.URL, mirror.URL}, 25, nil)
	batch, err := l.Fetch(context.Background())
	require.NoError(t, err)

	// Cross-posts from the mirror are dropped.
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "Linux kernel update lands", batch.Items[0].Title)
	assert.Equal(t, "https://lemmy.example/post/2", batch.Items[1].URL)
	assert.Equal(t, "linux", batch.Items[0].Community)

	require.Len(t, batch.Candidates, 1)
	c := batch.Candidates[0]
	assert.Equal(t, "Linux", c.Name)
	assert.Equal(t, CategoryTech, c.Category)
	require.NotNil(t, c.Data.Lemmy)
	assert.Equal(t, 2, c.Data.Lemmy.Mentions)
	assert.Equal(t, 400.0, c.Data.Lemmy.Score)

	// The failing instance is reported without failing the batch.
	require.Len(t, batch.Warnings, 1)
	assert.Contains(t, batch.Warnings[0], down.URL)
	assert.Contains(t, batch.Warnings[0], "502")
}

func TestLemmyNoWarningsWhenAllRespond(t *testing.T) {
	up := lemmyServer(t, http.StatusOK, lemmyPosts)

	batch, err := NewLemmy(testClient(), []string{up.URL}, 25, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Warnings)
}

func TestLemmyAllInstancesFailed(t *testing.T) {
	a := lemmyServer(t, http.StatusInternalServerError, "")
	b := lemmyServer(t, http.StatusOK, `not json`)

	_, err := NewLemmy(testClient(), []string{a.URL, b.URL}, 25, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllInstancesFailed))
}

func TestDedupeTitles(t *testing.T) {
	long := "An extremely long title that keeps going well past the fifty character mark"
	posts := dedupeTitles([]RawItem{
		{Title: long + " (part 1)"},
		{Title: long + " (part 2)"},
		{Title: "short"},
		{Title: "SHORT"},
	})
	require.Len(t, posts, 2)
	assert.Equal(t, "short", posts[1].Title)
}
