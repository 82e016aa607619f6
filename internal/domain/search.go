package domain

import "strings"

// Provider identifies which search backend produced a hit.
type Provider string

const (
	ProviderPrimary  Provider = "primary"
	ProviderFallback Provider = "fallback"
)

// Turn is a single prior exchange in the conversation leading up to a query.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Query is a single deep-search request from a user. History is carried for
// decomposition context only; it never participates in cache keying.
type Query struct {
	UserID  string
	Text    string
	History []Turn
}

// Validate checks the query invariants. Only an empty trimmed text is a
// user-visible error; everything else downstream degrades silently.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// Decomposition is the result of breaking one user question into targeted
// sub-queries. AIGenerated is false when the language model was unavailable
// and the decomposition fell back to the original query text.
type Decomposition struct {
	CoreQuestion string   `json:"coreQuestion"`
	SubQueries   []string `json:"searchQueries"`
	Rationale    string   `json:"rationale,omitempty"`
	AIGenerated  bool     `json:"aiGenerated"`
}

// SearchHit is one raw result from a search provider.
type SearchHit struct {
	Title    string   `json:"title"`
	Snippet  string   `json:"snippet"`
	URL      string   `json:"url"`
	SubQuery string   `json:"subQuery"`
	Provider Provider `json:"provider"`
}

// SynthesisResult is the reduced answer over all merged hits. Confidence is
// always in [0,1] and is 0 whenever AIGenerated is false.
type SynthesisResult struct {
	Summary     string   `json:"summary"`
	Sources     []string `json:"sources"`
	Confidence  float64  `json:"confidence"`
	AIGenerated bool     `json:"aiGenerated"`
}

// DedupeSources returns urls with duplicates removed, preserving the order of
// first appearance.
func DedupeSources(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
