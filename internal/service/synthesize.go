package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/llm"
	"github.com/candlelight-labs/sift/internal/rag"
)

const synthesizeSystemPrompt = `You are a research assistant. You are given a user question and raw web search results. Write one coherent, accurate answer grounded ONLY in the provided results, citing the source URLs you actually used.

Respond with ONLY a valid JSON object in this exact format:
{"summary": "the answer text", "sources": ["url1", "url2"], "confidence": 0.8}

Rules:
- confidence is your own estimate in [0,1] of how well the results answer the question.
- Do not invent sources; only cite URLs present in the results.
- If the results are thin or contradictory, say so in the summary and lower the confidence.`

const insufficientResultsSummary = "I couldn't find sufficient search results for this query. This might be due to rate limiting or the query being too specific. Please try rephrasing your question or try again later."

// Synthesizer reduces merged search hits into one cited answer via the
// language model, with a mechanical fallback.
type Synthesizer struct {
	llm llm.Completer
}

// NewSynthesizer creates a synthesizer. A nil completer is allowed and
// forces the fallback path.
func NewSynthesizer(completer llm.Completer) *Synthesizer {
	return &Synthesizer{llm: completer}
}

// Synthesize produces a SynthesisResult for the query over the merged hits.
// It never fails: with zero hits it short-circuits to a deterministic
// no-results summary without touching the model, and any model failure
// degrades to a mechanical concatenation of titles and URLs.
func (s *Synthesizer) Synthesize(ctx context.Context, queryText string, hits []domain.SearchHit, dec domain.Decomposition, ragContext []rag.Snippet) domain.SynthesisResult {
	if len(hits) == 0 {
		return domain.SynthesisResult{
			Summary:     insufficientResultsSummary,
			Sources:     []string{},
			Confidence:  0,
			AIGenerated: false,
		}
	}

	if s.llm == nil {
		return s.mechanicalFallback(hits)
	}

	raw, err := s.llm.Complete(ctx, synthesizeSystemPrompt, buildSynthesisPrompt(queryText, hits, dec, ragContext))
	if err != nil {
		log.Printf("synthesize: model call failed, using mechanical summary: %v", err)
		return s.mechanicalFallback(hits)
	}

	var payload struct {
		Summary    string   `json:"summary"`
		Sources    []string `json:"sources"`
		Confidence float64  `json:"confidence"`
	}
	if err := llm.DecodeFirstObject(raw, &payload); err != nil {
		log.Printf("synthesize: unparseable model output, using mechanical summary: %v", err)
		return s.mechanicalFallback(hits)
	}
	if strings.TrimSpace(payload.Summary) == "" {
		log.Printf("synthesize: model returned empty summary, using mechanical summary")
		return s.mechanicalFallback(hits)
	}

	sources := domain.DedupeSources(payload.Sources)
	if len(sources) == 0 {
		sources = hitSources(hits)
	}

	return domain.SynthesisResult{
		Summary:     strings.TrimSpace(payload.Summary),
		Sources:     sources,
		Confidence:  clampConfidence(payload.Confidence),
		AIGenerated: true,
	}
}

// mechanicalFallback builds a best-effort summary by concatenating hit
// titles and URLs.
func (s *Synthesizer) mechanicalFallback(hits []domain.SearchHit) domain.SynthesisResult {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d relevant results but was unable to synthesize an answer. The most relevant sources were:\n", len(hits))
	for i, h := range hits {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", h.Title, h.URL)
	}

	return domain.SynthesisResult{
		Summary:     strings.TrimSpace(b.String()),
		Sources:     hitSources(hits),
		Confidence:  0,
		AIGenerated: false,
	}
}

func buildSynthesisPrompt(queryText string, hits []domain.SearchHit, dec domain.Decomposition, ragContext []rag.Snippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", queryText)
	if dec.Rationale != "" {
		fmt.Fprintf(&b, "Search plan: %s\n", dec.Rationale)
	}

	b.WriteString("\nSearch results:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "Title: %s\nSnippet: %s\nSource: %s\n\n", h.Title, h.Snippet, h.URL)
	}

	if len(ragContext) > 0 {
		b.WriteString("Additional context from the user's documents:\n")
		for _, sn := range ragContext {
			fmt.Fprintf(&b, "Document: %s\n%s\n\n", sn.Source, sn.Content)
		}
	}

	return b.String()
}

func hitSources(hits []domain.SearchHit) []string {
	urls := make([]string, 0, len(hits))
	for _, h := range hits {
		urls = append(urls, h.URL)
	}
	return domain.DedupeSources(urls)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
