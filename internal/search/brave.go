package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	braveEndpoint   = "https://api.search.brave.com/res/v1/web/search"
	braveMaxResults = 8
)

// Brave queries the Brave Search API. An API key is required and is sent via
// the X-Subscription-Token header.
type Brave struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewBrave constructs a Brave search provider with a modest default timeout.
func NewBrave(apiKey string) *Brave {
	return NewBraveWithClient(apiKey, &http.Client{Timeout: 10 * time.Second})
}

// NewBraveWithClient constructs a Brave provider using the supplied HTTP
// client. Useful for overriding the timeout and for tests.
func NewBraveWithClient(apiKey string, client *http.Client) *Brave {
	return &Brave{apiKey: apiKey, endpoint: braveEndpoint, client: client}
}

func (b *Brave) Name() string { return "brave" }

// Search executes one Brave query and maps the web results into hits,
// preserving the provider's ranking order.
func (b *Brave) Search(ctx context.Context, query string) ([]Hit, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, errors.New("brave: API key is missing")
	}

	endpoint := b.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("brave: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave http %d", resp.StatusCode)
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		hits = append(hits, Hit{Title: r.Title, URL: r.URL, Snippet: r.Description})
		if len(hits) >= braveMaxResults {
			break
		}
	}

	return hits, nil
}
