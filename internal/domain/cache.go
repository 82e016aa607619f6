package domain

import (
	"fmt"
	"time"
)

// TTLClass selects the lifetime applied to a cache entry. Actual durations
// are configuration, not constants.
type TTLClass string

const (
	// TTLSearch covers full deep-search payloads; short-lived so answers do
	// not drift too far from the live web.
	TTLSearch TTLClass = "search"
	// TTLRAGContext covers supplementary document-context snippets, which
	// change far less often than web results.
	TTLRAGContext TTLClass = "ragContext"
)

// ValidateTTLClass rejects unknown TTL classes before they reach storage.
func ValidateTTLClass(c TTLClass) error {
	switch c {
	case TTLSearch, TTLRAGContext:
		return nil
	default:
		return ErrInvalidTTLClass
	}
}

// CachePayload is the full computed result stored per (user, query-hash).
type CachePayload struct {
	Decomposition Decomposition   `json:"decomposition"`
	Hits          []SearchHit     `json:"hits"`
	Synthesis     SynthesisResult `json:"synthesis"`
	RateLimited   bool            `json:"rateLimited,omitempty"`
}

// CacheEntry is one persisted cache record. UpdatedAt is the write time used
// for TTL evaluation; entries past their TTL are treated as absent.
type CacheEntry struct {
	UserID    string
	QueryHash string
	Payload   CachePayload
	TTLClass  TTLClass
	UpdatedAt time.Time
}

// ExpiredAt reports whether the entry is past its TTL at the given instant.
func (e *CacheEntry) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.UpdatedAt) > ttl
}

// CacheStats summarizes the state of a cache namespace.
type CacheStats struct {
	EntryCount int64         `json:"entryCount"`
	OldestAge  time.Duration `json:"oldestAge"`
}

// ValidateCacheEntry checks invariants before persisting an entry.
func ValidateCacheEntry(e *CacheEntry) error {
	if e == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if e.UserID == "" {
		return fmt.Errorf("cache entry UserID is required")
	}
	if e.QueryHash == "" {
		return fmt.Errorf("cache entry QueryHash is required")
	}
	return ValidateTTLClass(e.TTLClass)
}
