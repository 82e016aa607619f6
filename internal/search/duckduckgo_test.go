package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDDG(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d := NewDuckDuckGoWithClient(srv.Client())
	d.endpoint = srv.URL
	return d
}

func TestDuckDuckGo_Search_AbstractAndTopics(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paris", r.URL.Query().Get("q"))
		w.Write([]byte(`{
			"Heading": "Paris",
			"AbstractText": "Paris is the capital of France.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Paris",
			"RelatedTopics": [
				{"Text": "Paris - capital city", "Result": "<a href=\"x\"><b>Paris</b></a> capital city", "FirstURL": "https://duckduckgo.com/Paris"}
			]
		}`))
	})

	hits, err := d.Search(context.Background(), "paris")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Paris", hits[0].Title)
	assert.Equal(t, "Paris is the capital of France.", hits[0].Snippet)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Paris", hits[0].URL)
	assert.Equal(t, "Paris", hits[1].Title)
}

func TestDuckDuckGo_Search_FlattensTopicGroups(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"RelatedTopics": [
				{"Topics": [
					{"Text": "First nested", "Result": "<b>First</b>", "FirstURL": "https://example.com/1"},
					{"Text": "Second nested", "Result": "<b>Second</b>", "FirstURL": "https://example.com/2"}
				]},
				{"Text": "Plain topic", "Result": "", "FirstURL": "https://example.com/3"}
			]
		}`))
	})

	hits, err := d.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "First", hits[0].Title)
	assert.Equal(t, "Second", hits[1].Title)
	assert.Equal(t, "Plain topic", hits[2].Title)
	assert.Equal(t, "https://example.com/3", hits[2].URL)
}

func TestDuckDuckGo_Search_SkipsTopicsWithoutURL(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RelatedTopics": [{"Text": "no url", "Result": "", "FirstURL": ""}]}`))
	})

	hits, err := d.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDuckDuckGo_Search_RateLimited(t *testing.T) {
	d := newTestDDG(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := d.Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, `a "quoted" & <tagged> title`, stripTags(`<a href="u">a &quot;quoted&quot; &amp; &lt;tagged&gt; title</a>`))
}
