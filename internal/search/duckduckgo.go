package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	ddgEndpoint   = "https://api.duckduckgo.com/"
	ddgMaxResults = 8
)

var boldTitlePattern = regexp.MustCompile(`<b>(.*?)</b>`)

// DuckDuckGo queries the DuckDuckGo Instant Answer API. It needs no API key,
// which makes it the fallback path when the primary provider fails or
// returns nothing.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo searcher with a modest timeout.
func NewDuckDuckGo() *DuckDuckGo {
	return NewDuckDuckGoWithClient(&http.Client{Timeout: 15 * time.Second})
}

// NewDuckDuckGoWithClient creates a DuckDuckGo searcher using the supplied
// HTTP client.
func NewDuckDuckGoWithClient(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{endpoint: ddgEndpoint, client: client}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// ddgTopic appears both as a single result and as a nested topic group; a
// group carries Topics and no Result.
type ddgTopic struct {
	Text     string     `json:"Text"`
	Result   string     `json:"Result"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

// Search fetches instant-answer results for the query. RelatedTopics groups
// are flattened; hits keep the API's order.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Hit, error) {
	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=0", d.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("duckduckgo: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	var payload struct {
		AbstractText  string     `json:"AbstractText"`
		AbstractURL   string     `json:"AbstractURL"`
		Heading       string     `json:"Heading"`
		RelatedTopics []ddgTopic `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var hits []Hit

	// The abstract, when present, is the best single answer.
	if payload.AbstractText != "" && payload.AbstractURL != "" {
		title := payload.Heading
		if title == "" {
			title = payload.AbstractURL
		}
		hits = append(hits, Hit{Title: title, Snippet: payload.AbstractText, URL: payload.AbstractURL})
	}

	for _, topic := range payload.RelatedTopics {
		hits = appendTopicHits(hits, topic)
		if len(hits) >= ddgMaxResults {
			break
		}
	}
	if len(hits) > ddgMaxResults {
		hits = hits[:ddgMaxResults]
	}

	return hits, nil
}

func appendTopicHits(hits []Hit, topic ddgTopic) []Hit {
	if len(topic.Topics) > 0 {
		for _, sub := range topic.Topics {
			hits = appendTopicHits(hits, sub)
			if len(hits) >= ddgMaxResults {
				return hits
			}
		}
		return hits
	}

	if topic.FirstURL == "" || topic.Text == "" {
		return hits
	}

	title := topic.Text
	// The Result field wraps the site name in <b> tags; prefer it as the
	// title when present.
	if m := boldTitlePattern.FindStringSubmatch(topic.Result); len(m) == 2 && m[1] != "" {
		title = stripTags(m[1])
	}

	return append(hits, Hit{Title: title, Snippet: stripTags(topic.Text), URL: topic.FirstURL})
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func stripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	return strings.TrimSpace(s)
}
