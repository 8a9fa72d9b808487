// Package router dispatches asset fetches by URL scheme.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure Router implements the interface.
var _ driven.AssetFetcher = (*Router)(nil)

// Router picks a fetcher by the lower-cased scheme of the URL.
type Router struct {
	fetchers map[string]driven.AssetFetcher
}

// New creates an empty router.
func New() *Router {
	return &Router{fetchers: make(map[string]driven.AssetFetcher)}
}

// Handle registers f for the given schemes. A nil f is ignored.
func (r *Router) Handle(f driven.AssetFetcher, schemes ...string) *Router {
	if f == nil {
		return r
	}
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = f
	}
	return r
}

// Fetch delegates to the fetcher registered for the URL scheme.
func (r *Router) Fetch(ctx context.Context, url string) (*driven.Asset, error) {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no scheme", domain.ErrAssetFetch, url)
	}
	f, ok := r.fetchers[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: no fetcher for scheme %q", domain.ErrAssetFetch, scheme)
	}
	return f.Fetch(ctx, url)
}
