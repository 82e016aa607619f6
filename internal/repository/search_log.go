package repository

import (
	"context"
	"time"

	"github.com/candlelight-labs/sift/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogRepository stores completed deep searches for history and
// evaluation.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

func (r *SearchLogRepository) Create(ctx context.Context, entry service.SearchLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO search_logs
			(id, user_id, query, query_hash, sub_queries, result_count, confidence, ai_generated, cache_hit, rate_limited, duration_ms, created_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID,
		entry.UserID,
		entry.QueryText,
		entry.QueryHash,
		entry.SubQueries,
		entry.TotalResults,
		entry.Confidence,
		entry.AIGenerated,
		entry.CacheHit,
		entry.RateLimited,
		entry.DurationMS,
		createdAt,
	)
	return err
}

func (r *SearchLogRepository) ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]service.SearchLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, query, query_hash, sub_queries, result_count, confidence, ai_generated, cache_hit, rate_limited, duration_ms, created_at
		 FROM search_logs
		 WHERE user_id = $1 AND created_at < $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, before, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []service.SearchLogEntry
	for rows.Next() {
		var e service.SearchLogEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.QueryText, &e.QueryHash, &e.SubQueries,
			&e.TotalResults, &e.Confidence, &e.AIGenerated, &e.CacheHit,
			&e.RateLimited, &e.DurationMS, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
