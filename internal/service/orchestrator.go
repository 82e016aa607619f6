package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/search"
	"golang.org/x/sync/semaphore"
)

// SubQueryResult is the settled outcome of searching one sub-query.
type SubQueryResult struct {
	SubQuery    string
	Hits        []domain.SearchHit
	Succeeded   bool
	RateLimited bool
	Err         string
}

// OrchestratorConfig tunes the fan-out.
type OrchestratorConfig struct {
	// Concurrency bounds simultaneous outbound calls; provider rate limits
	// make a small width mandatory.
	Concurrency int
	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration
}

// DefaultOrchestratorConfig returns the standard fan-out tuning.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{Concurrency: 3, CallTimeout: 10 * time.Second}
}

// Orchestrator fans sub-queries out to the primary search provider with
// bounded concurrency, falling back to a secondary provider per sub-query.
// A failed sub-query never cancels its siblings.
type Orchestrator struct {
	primary  search.Provider
	fallback search.Provider
	cfg      OrchestratorConfig
}

// NewOrchestrator creates an orchestrator. fallback may be nil.
func NewOrchestrator(primary, fallback search.Provider, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultOrchestratorConfig().Concurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultOrchestratorConfig().CallTimeout
	}
	return &Orchestrator{primary: primary, fallback: fallback, cfg: cfg}
}

// SearchAll dispatches every sub-query and waits for all of them to settle.
// Results come back grouped in the order sub-queries were issued; within a
// group, provider order is preserved. No global ranking is imposed.
func (o *Orchestrator) SearchAll(ctx context.Context, subQueries []string) []SubQueryResult {
	results := make([]SubQueryResult, len(subQueries))

	sem := semaphore.NewWeighted(int64(o.cfg.Concurrency))
	var wg sync.WaitGroup
	for i, sq := range subQueries {
		wg.Add(1)
		go func(i int, sq string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = SubQueryResult{SubQuery: sq, Err: err.Error()}
				return
			}
			defer sem.Release(1)
			results[i] = o.searchOne(ctx, sq)
		}(i, sq)
	}
	wg.Wait()

	return results
}

// searchOne tries the primary provider, then the fallback once if the
// primary errored or came back empty.
func (o *Orchestrator) searchOne(ctx context.Context, subQuery string) SubQueryResult {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	result := SubQueryResult{SubQuery: subQuery}

	hits, err := o.primary.Search(callCtx, subQuery)
	if err != nil {
		if search.IsRateLimited(err) {
			result.RateLimited = true
		}
		result.Err = err.Error()
		log.Printf("search: primary provider %s failed for %q: %v", o.primary.Name(), subQuery, err)
	}

	if len(hits) > 0 {
		result.Hits = toDomainHits(hits, subQuery, domain.ProviderPrimary)
		result.Succeeded = true
		return result
	}

	if o.fallback == nil {
		result.Succeeded = err == nil
		return result
	}

	// One fallback attempt, on its own timeout so a slow primary does not
	// starve it.
	fbCtx, fbCancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer fbCancel()

	fbHits, fbErr := o.fallback.Search(fbCtx, subQuery)
	if fbErr != nil {
		if search.IsRateLimited(fbErr) {
			result.RateLimited = true
		}
		if result.Err == "" {
			result.Err = fbErr.Error()
		}
		log.Printf("search: fallback provider %s failed for %q: %v", o.fallback.Name(), subQuery, fbErr)
		return result
	}

	if len(fbHits) > 0 {
		result.Hits = toDomainHits(fbHits, subQuery, domain.ProviderFallback)
		result.Succeeded = true
		result.Err = ""
		return result
	}

	// Both providers answered cleanly with nothing; that is a successful
	// search with zero hits, not a failure.
	if err == nil {
		result.Succeeded = true
	}
	return result
}

func toDomainHits(hits []search.Hit, subQuery string, provider domain.Provider) []domain.SearchHit {
	out := make([]domain.SearchHit, len(hits))
	for i, h := range hits {
		out[i] = domain.SearchHit{
			Title:    h.Title,
			Snippet:  h.Snippet,
			URL:      h.URL,
			SubQuery: subQuery,
			Provider: provider,
		}
	}
	return out
}

// MergeHits flattens grouped results into one slice, preserving group order
// and provider order within each group.
func MergeHits(groups []SubQueryResult) []domain.SearchHit {
	var merged []domain.SearchHit
	for _, g := range groups {
		merged = append(merged, g.Hits...)
	}
	return merged
}

// AnyRateLimited reports whether any sub-query hit provider throttling.
func AnyRateLimited(groups []SubQueryResult) bool {
	for _, g := range groups {
		if g.RateLimited {
			return true
		}
	}
	return false
}
