package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/candlelight-labs/sift/internal/domain"
)

// CacheRepository is the persistence contract for cached deep-search
// payloads, namespaced by user.
type CacheRepository interface {
	Get(ctx context.Context, userID, queryHash string) (*domain.CacheEntry, error)
	Put(ctx context.Context, entry *domain.CacheEntry) error
	Delete(ctx context.Context, userID, queryHash string) error
	Clear(ctx context.Context, userID string) error
	Stats(ctx context.Context, userID string) (*domain.CacheStats, error)
	DeleteExpired(ctx context.Context, class domain.TTLClass, cutoff time.Time) (int64, error)
}

// CacheTTLs maps each TTL class to its configured lifetime.
type CacheTTLs map[domain.TTLClass]time.Duration

// DefaultCacheTTLs returns the lifetimes used when none are configured.
func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		domain.TTLSearch:     time.Hour,
		domain.TTLRAGContext: 24 * time.Hour,
	}
}

// CacheService implements the per-user result cache. The key is a SHA-256 of
// the normalized query text only, so a repeated question hits regardless of
// where it sits in a conversation. Storage failures are logged and treated
// as a miss or a no-op write; the cache is an optimization, never a
// correctness dependency.
type CacheService struct {
	repo CacheRepository
	ttls CacheTTLs
	now  func() time.Time
}

// NewCacheService creates a cache service over the given repository.
func NewCacheService(repo CacheRepository, ttls CacheTTLs) *CacheService {
	if ttls == nil {
		ttls = DefaultCacheTTLs()
	}
	return &CacheService{repo: repo, ttls: ttls, now: time.Now}
}

// NormalizeQuery canonicalizes query text for cache keying: trim, lowercase,
// collapse runs of whitespace.
func NormalizeQuery(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// QueryHash returns the hex SHA-256 of the normalized query text.
func QueryHash(text string) string {
	sum := sha256.Sum256([]byte(NormalizeQuery(text)))
	return hex.EncodeToString(sum[:])
}

// TTLFor returns the configured lifetime for a TTL class.
func (s *CacheService) TTLFor(class domain.TTLClass) time.Duration {
	if ttl, ok := s.ttls[class]; ok {
		return ttl
	}
	return DefaultCacheTTLs()[class]
}

// Get returns the cached entry for (userID, query), or nil on a miss.
// Expiry is evaluated lazily at read time: an expired entry is deleted and
// reported as a miss.
func (s *CacheService) Get(ctx context.Context, userID, queryText string) *domain.CacheEntry {
	hash := QueryHash(queryText)

	entry, err := s.repo.Get(ctx, userID, hash)
	if err != nil {
		if err != domain.ErrCacheEntryNotFound {
			log.Printf("cache: read failed for user %s: %v", userID, err)
		}
		return nil
	}

	if entry.ExpiredAt(s.now(), s.TTLFor(entry.TTLClass)) {
		if err := s.repo.Delete(ctx, userID, hash); err != nil {
			log.Printf("cache: failed to delete expired entry: %v", err)
		}
		return nil
	}

	return entry
}

// Put stores a payload under (userID, query). Writes are last-write-wins;
// failures are logged and swallowed.
func (s *CacheService) Put(ctx context.Context, userID, queryText string, payload domain.CachePayload, class domain.TTLClass) {
	entry := &domain.CacheEntry{
		UserID:    userID,
		QueryHash: QueryHash(queryText),
		Payload:   payload,
		TTLClass:  class,
		UpdatedAt: s.now().UTC(),
	}

	if err := domain.ValidateCacheEntry(entry); err != nil {
		log.Printf("cache: refusing invalid entry: %v", err)
		return
	}

	if err := s.repo.Put(ctx, entry); err != nil {
		log.Printf("cache: write failed for user %s: %v", userID, err)
	}
}

// Stats reports entry count and oldest age for one user namespace, or for
// all users when userID is empty.
func (s *CacheService) Stats(ctx context.Context, userID string) (*domain.CacheStats, error) {
	return s.repo.Stats(ctx, userID)
}

// Clear removes all entries for one user, or every entry when userID is
// empty.
func (s *CacheService) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// Sweep deletes entries past their TTL for every class. Correctness does not
// depend on it (expiry is lazy); it only reclaims space for entries nobody
// re-requests.
func (s *CacheService) Sweep(ctx context.Context) (int64, error) {
	var total int64
	for class, ttl := range s.ttls {
		if ttl <= 0 {
			continue
		}
		n, err := s.repo.DeleteExpired(ctx, class, s.now().Add(-ttl))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
