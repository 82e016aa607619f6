// Package search contains clients for external web-search providers.
package search

import (
	"context"
	"errors"
)

// Hit is one raw result returned by a provider, in provider-ranking order.
type Hit struct {
	Title   string
	Snippet string
	URL     string
}

// Provider is the outbound search contract. Implementations must honor ctx
// cancellation and return ErrRateLimited (possibly wrapped) when the backend
// signals throttling, so callers can classify it apart from hard failures.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Hit, error)
}

// ErrRateLimited indicates the provider rejected the call due to throttling.
var ErrRateLimited = errors.New("search provider rate limited")

// IsRateLimited reports whether err represents provider throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
