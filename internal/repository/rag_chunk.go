package repository

import (
	"context"

	"github.com/candlelight-labs/sift/internal/rag"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// RAGChunkRepository finds document chunks by embedding similarity.
type RAGChunkRepository struct {
	pool *pgxpool.Pool
}

func NewRAGChunkRepository(pool *pgxpool.Pool) *RAGChunkRepository {
	return &RAGChunkRepository{pool: pool}
}

func (r *RAGChunkRepository) NearestChunks(ctx context.Context, userID string, embedding []float32, limit int) ([]rag.Snippet, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := r.pool.Query(ctx,
		`SELECT source, content
		 FROM rag_chunks
		 WHERE user_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		userID, pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []rag.Snippet
	for rows.Next() {
		var s rag.Snippet
		if err := rows.Scan(&s.Source, &s.Content); err != nil {
			return nil, err
		}
		snippets = append(snippets, s)
	}
	return snippets, rows.Err()
}

// InsertChunk stores one document chunk with its embedding.
func (r *RAGChunkRepository) InsertChunk(ctx context.Context, userID, source, content string, embedding []float32) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rag_chunks (user_id, source, content, embedding)
		 VALUES ($1, $2, $3, $4)`,
		userID, source, content, pgvector.NewVector(embedding),
	)
	return err
}
