// Package rag retrieves relevant snippets from a user's ingested
// documents to ground answer synthesis.
package rag

import (
	"context"
	"fmt"
	"log"
)

// Snippet is one piece of document context relevant to a query.
type Snippet struct {
	Source  string
	Content string
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkRepository finds the stored document chunks nearest to a vector.
type ChunkRepository interface {
	NearestChunks(ctx context.Context, userID string, embedding []float32, limit int) ([]Snippet, error)
}

// Provider looks up document context for a query. All failures are
// reported as errors; callers treat context as best effort.
type Provider struct {
	embedder Embedder
	chunks   ChunkRepository
	limit    int
}

func NewProvider(embedder Embedder, chunks ChunkRepository, limit int) *Provider {
	if limit <= 0 {
		limit = 3
	}
	return &Provider{embedder: embedder, chunks: chunks, limit: limit}
}

// Relevant returns up to the configured number of snippets for the query,
// or nil when retrieval is unavailable.
func (p *Provider) Relevant(ctx context.Context, userID, queryText string) ([]Snippet, error) {
	if p == nil || p.embedder == nil || p.chunks == nil {
		return nil, nil
	}

	embedding, err := p.embedder.GenerateEmbedding(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	snippets, err := p.chunks.NearestChunks(ctx, userID, embedding, p.limit)
	if err != nil {
		return nil, fmt.Errorf("finding chunks: %w", err)
	}
	if len(snippets) > 0 {
		log.Printf("rag: found %d context snippets for user %s", len(snippets), userID)
	}
	return snippets, nil
}
