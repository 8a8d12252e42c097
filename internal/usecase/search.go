package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TrackBets/internal/domain/models"
	dservice "TrackBets/internal/domain/service"
	"TrackBets/pkg/cache"
)

var ErrTickerNotFound = errors.New("ticker not found")

// Search resolves free-text queries against the catalog. Hits are cached.
type Search struct {
	catalog dservice.Catalog
	cache   cache.Service
	ttl     time.Duration
}

func NewSearch(catalog dservice.Catalog, c cache.Service, ttl time.Duration) *Search {
	return &Search{catalog: catalog, cache: c, ttl: ttl}
}

// Find returns the first catalog entry matching query.
func (s *Search) Find(ctx context.Context, query string) (models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return models.SearchResult{}, fmt.Errorf("%w: empty query", ErrTickerNotFound)
	}

	lookup := func(context.Context) (models.SearchResult, error) {
		res, ok := s.catalog.Search(q)
		if !ok {
			return models.SearchResult{}, fmt.Errorf("%w: %s", ErrTickerNotFound, q)
		}
		return res, nil
	}
	if s.cache == nil {
		return lookup(ctx)
	}
	return cache.Remember(ctx, s.cache, cache.QueryKey("search", q), s.ttl, lookup)
}
