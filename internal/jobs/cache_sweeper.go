package jobs

import (
	"context"
	"log"
)

// Sweeper reclaims expired cache entries.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// CacheSweeper is a JobProcessor that periodically deletes cache entries
// past their TTL. Read paths already treat expired entries as absent, so
// this only reclaims storage.
type CacheSweeper struct {
	sweeper Sweeper
}

func NewCacheSweeper(sweeper Sweeper) *CacheSweeper {
	return &CacheSweeper{sweeper: sweeper}
}

func (s *CacheSweeper) ProcessJobs(ctx context.Context) error {
	deleted, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("cache sweeper: deleted %d expired entries", deleted)
	}
	return nil
}
