package service

import (
	"context"
	"time"
)

// SearchLogEntry records one completed deep search for later inspection.
type SearchLogEntry struct {
	ID           string
	UserID       string
	QueryText    string
	QueryHash    string
	SubQueries   []string
	TotalResults int
	Confidence   float64
	AIGenerated  bool
	CacheHit     bool
	RateLimited  bool
	DurationMS   int64
	CreatedAt    time.Time
}

// SearchLogRepository persists and lists search log entries.
type SearchLogRepository interface {
	Create(ctx context.Context, entry SearchLogEntry) error
	ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]SearchLogEntry, error)
}
