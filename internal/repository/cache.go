package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CacheRepository persists deep-search payloads keyed by (user_id,
// query_hash). Payloads are stored as jsonb; expiry is the caller's concern.
type CacheRepository struct {
	pool *pgxpool.Pool
}

func NewCacheRepository(pool *pgxpool.Pool) *CacheRepository {
	return &CacheRepository{pool: pool}
}

func (r *CacheRepository) Get(ctx context.Context, userID, queryHash string) (*domain.CacheEntry, error) {
	entry := domain.CacheEntry{UserID: userID, QueryHash: queryHash}
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload, ttl_class, updated_at
		 FROM search_cache WHERE user_id = $1 AND query_hash = $2`,
		userID, queryHash,
	).Scan(&payload, &entry.TTLClass, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCacheEntryNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &entry.Payload); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *CacheRepository) Put(ctx context.Context, entry *domain.CacheEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO search_cache (user_id, query_hash, payload, ttl_class, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, query_hash)
		 DO UPDATE SET payload = EXCLUDED.payload,
		               ttl_class = EXCLUDED.ttl_class,
		               updated_at = EXCLUDED.updated_at`,
		entry.UserID, entry.QueryHash, payload, entry.TTLClass, entry.UpdatedAt,
	)
	return err
}

func (r *CacheRepository) Delete(ctx context.Context, userID, queryHash string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM search_cache WHERE user_id = $1 AND query_hash = $2`,
		userID, queryHash,
	)
	return err
}

// Clear removes every entry for one user, or all entries when userID is empty.
func (r *CacheRepository) Clear(ctx context.Context, userID string) error {
	var err error
	if userID == "" {
		_, err = r.pool.Exec(ctx, `DELETE FROM search_cache`)
	} else {
		_, err = r.pool.Exec(ctx, `DELETE FROM search_cache WHERE user_id = $1`, userID)
	}
	return err
}

func (r *CacheRepository) Stats(ctx context.Context, userID string) (*domain.CacheStats, error) {
	var count int64
	var oldest *time.Time
	var err error

	if userID == "" {
		err = r.pool.QueryRow(ctx,
			`SELECT COUNT(*), MIN(updated_at) FROM search_cache`,
		).Scan(&count, &oldest)
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT COUNT(*), MIN(updated_at) FROM search_cache WHERE user_id = $1`,
			userID,
		).Scan(&count, &oldest)
	}
	if err != nil {
		return nil, err
	}

	stats := &domain.CacheStats{EntryCount: count}
	if oldest != nil {
		stats.OldestAge = time.Since(*oldest)
	}
	return stats, nil
}

func (r *CacheRepository) DeleteExpired(ctx context.Context, class domain.TTLClass, cutoff time.Time) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM search_cache WHERE ttl_class = $1 AND updated_at < $2`,
		class, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
