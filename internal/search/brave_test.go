package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBrave(t *testing.T, handler http.HandlerFunc) *Brave {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	b := NewBraveWithClient("test-key", srv.Client())
	b.endpoint = srv.URL
	return b
}

func TestBrave_Search_Success(t *testing.T) {
	var gotToken string
	b := newTestBrave(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		assert.Equal(t, "capital of France", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"Paris","url":"https://en.wikipedia.org/wiki/Paris","description":"Capital of France"},
			{"title":"France","url":"https://en.wikipedia.org/wiki/France","description":"A country"}
		]}}`))
	})

	hits, err := b.Search(context.Background(), "capital of France")
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotToken)
	require.Len(t, hits, 2)
	assert.Equal(t, "Paris", hits[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Paris", hits[0].URL)
	assert.Equal(t, "Capital of France", hits[0].Snippet)
}

func TestBrave_Search_RateLimited(t *testing.T) {
	b := newTestBrave(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := b.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestBrave_Search_ServerError(t *testing.T) {
	b := newTestBrave(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := b.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
}

func TestBrave_Search_MissingAPIKey(t *testing.T) {
	b := NewBrave("")
	_, err := b.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestBrave_Search_SkipsIncompleteResults(t *testing.T) {
	b := newTestBrave(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"web":{"results":[
			{"title":"","url":"https://example.com/a","description":"no title"},
			{"title":"Good","url":"https://example.com/b","description":"kept"}
		]}}`))
	})

	hits, err := b.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Good", hits[0].Title)
}
