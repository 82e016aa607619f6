package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/llm"
)

const decomposeSystemPrompt = `You are a search planning assistant. Given a user question and optional conversation history, produce focused web-search queries that together cover the question.

Respond with ONLY a valid JSON object in this exact format:
{"searchQueries": ["query 1", "query 2"], "context": "one sentence explaining the decomposition"}

Rules:
- Produce at most 3 search queries.
- Each query must be a short, self-contained search string.
- Prefer fewer, sharper queries over many overlapping ones.`

// Decomposer turns one user question into a bounded list of targeted
// sub-queries using the language model, with a deterministic fallback.
type Decomposer struct {
	llm           llm.Completer
	maxSubQueries int
}

// NewDecomposer creates a decomposer. A nil completer is allowed and forces
// the fallback path.
func NewDecomposer(completer llm.Completer, maxSubQueries int) *Decomposer {
	if maxSubQueries <= 0 || maxSubQueries > 3 {
		maxSubQueries = 3
	}
	return &Decomposer{llm: completer, maxSubQueries: maxSubQueries}
}

// Decompose produces 1..max sub-queries for the given query. It never fails:
// any model error, timeout, or malformed response degrades to a single
// sub-query equal to the original text with AIGenerated=false.
func (d *Decomposer) Decompose(ctx context.Context, queryText string, history []domain.Turn) domain.Decomposition {
	queryText = strings.TrimSpace(queryText)
	fallback := domain.Decomposition{
		CoreQuestion: queryText,
		SubQueries:   []string{queryText},
		AIGenerated:  false,
	}

	if d.llm == nil {
		return fallback
	}

	raw, err := d.llm.Complete(ctx, decomposeSystemPrompt, d.buildPrompt(queryText, history))
	if err != nil {
		log.Printf("decompose: model call failed, using original query: %v", err)
		return fallback
	}

	var payload struct {
		SearchQueries []string `json:"searchQueries"`
		Context       string   `json:"context"`
	}
	if err := llm.DecodeFirstObject(raw, &payload); err != nil {
		log.Printf("decompose: unparseable model output, using original query: %v", err)
		return fallback
	}

	subQueries := dedupeQueries(payload.SearchQueries, d.maxSubQueries)
	if len(subQueries) == 0 {
		log.Printf("decompose: model returned no usable queries, using original query")
		return fallback
	}

	return domain.Decomposition{
		CoreQuestion: queryText,
		SubQueries:   subQueries,
		Rationale:    strings.TrimSpace(payload.Context),
		AIGenerated:  true,
	}
}

func (d *Decomposer) buildPrompt(queryText string, history []domain.Turn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation history:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s", queryText)
	return b.String()
}

// dedupeQueries drops empty and case-insensitively duplicated entries,
// keeping first-appearance order, truncated to max.
func dedupeQueries(queries []string, max int) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, max)
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
		if len(out) >= max {
			break
		}
	}
	return out
}
