package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/rag"
)

// DeepSearchResult is the outcome of one deep-search request.
type DeepSearchResult struct {
	Query         domain.Query
	Decomposition domain.Decomposition
	Hits          []domain.SearchHit
	Synthesis     domain.SynthesisResult
	TotalResults  int
	RateLimited   bool
	CacheHit      bool
	Timestamp     time.Time
}

// RAGProvider supplies document context for synthesis. Nil means no RAG.
type RAGProvider interface {
	Relevant(ctx context.Context, userID, queryText string) ([]rag.Snippet, error)
}

// DeepSearchService runs the full pipeline: cache lookup, query
// decomposition, provider fan-out, synthesis, cache write and logging.
type DeepSearchService struct {
	cache        *CacheService
	decomposer   *Decomposer
	orchestrator *Orchestrator
	synthesizer  *Synthesizer
	ragProvider  RAGProvider
	searchLogs   SearchLogRepository
	deadline     time.Duration
	now          func() time.Time
}

// NewDeepSearchService wires the pipeline. ragProvider and searchLogs may
// be nil; both are best-effort stages.
func NewDeepSearchService(cache *CacheService, decomposer *Decomposer, orchestrator *Orchestrator, synthesizer *Synthesizer, ragProvider RAGProvider, searchLogs SearchLogRepository, deadline time.Duration) *DeepSearchService {
	if deadline <= 0 {
		deadline = 90 * time.Second
	}
	return &DeepSearchService{
		cache:        cache,
		decomposer:   decomposer,
		orchestrator: orchestrator,
		synthesizer:  synthesizer,
		ragProvider:  ragProvider,
		searchLogs:   searchLogs,
		deadline:     deadline,
		now:          time.Now,
	}
}

// Search executes a deep search for the query. The only client error is an
// empty query; every downstream failure degrades to a well-formed result.
func (s *DeepSearchService) Search(ctx context.Context, query domain.Query) (*DeepSearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	started := s.now()
	hash := QueryHash(query.Text)

	if cached := s.cache.Get(ctx, query.UserID, query.Text); cached != nil {
		result := &DeepSearchResult{
			Query:         query,
			Decomposition: cached.Payload.Decomposition,
			Hits:          cached.Payload.Hits,
			Synthesis:     cached.Payload.Synthesis,
			TotalResults:  len(cached.Payload.Hits),
			RateLimited:   cached.Payload.RateLimited,
			CacheHit:      true,
			Timestamp:     s.now(),
		}
		s.logSearch(query, hash, result, started)
		return result, nil
	}

	dec := s.decomposer.Decompose(ctx, query.Text, query.History)

	subResults := s.orchestrator.SearchAll(ctx, dec.SubQueries)
	hits := MergeHits(subResults)
	rateLimited := AnyRateLimited(subResults)

	var snippets []rag.Snippet
	if s.ragProvider != nil {
		var err error
		snippets, err = s.ragProvider.Relevant(ctx, query.UserID, query.Text)
		if err != nil {
			log.Printf("deepsearch: document context lookup failed: %v", err)
			snippets = nil
		}
	}

	synthesis := s.synthesizer.Synthesize(ctx, query.Text, hits, dec, snippets)

	result := &DeepSearchResult{
		Query:         query,
		Decomposition: dec,
		Hits:          hits,
		Synthesis:     synthesis,
		TotalResults:  len(hits),
		RateLimited:   rateLimited,
		CacheHit:      false,
		Timestamp:     s.now(),
	}

	// Answers grounded in document context stay valid for as long as the
	// context does, so they take the longer ragContext lifetime.
	class := domain.TTLSearch
	if len(snippets) > 0 {
		class = domain.TTLRAGContext
	}

	s.cache.Put(ctx, query.UserID, query.Text, domain.CachePayload{
		Decomposition: dec,
		Hits:          hits,
		Synthesis:     synthesis,
		RateLimited:   rateLimited,
	}, class)

	s.logSearch(query, hash, result, started)
	return result, nil
}

func (s *DeepSearchService) logSearch(query domain.Query, hash string, result *DeepSearchResult, started time.Time) {
	if s.searchLogs == nil {
		return
	}

	entry := SearchLogEntry{
		ID:           uuid.NewString(),
		UserID:       query.UserID,
		QueryText:    query.Text,
		QueryHash:    hash,
		SubQueries:   result.Decomposition.SubQueries,
		TotalResults: result.TotalResults,
		Confidence:   result.Synthesis.Confidence,
		AIGenerated:  result.Synthesis.AIGenerated,
		CacheHit:     result.CacheHit,
		RateLimited:  result.RateLimited,
		DurationMS:   s.now().Sub(started).Milliseconds(),
		CreatedAt:    s.now(),
	}
	if err := s.searchLogs.Create(context.Background(), entry); err != nil {
		log.Printf("deepsearch: recording search log failed: %v", err)
	}
}
