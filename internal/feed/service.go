package feed

import (
	"context"
	"strings"
	"time"

	"github.com/campusvoice/hub/internal/models"
)

// Service serves aggregated feeds through the cache.
type Service struct {
	aggregator *Aggregator
	cache      *Cache
}

// NewService creates a feed service.
func NewService(aggregator *Aggregator, cache *Cache) *Service {
	return &Service{
		aggregator: aggregator,
		cache:      cache,
	}
}

// NormalizeTag strips a leading '#' and surrounding whitespace from a hashtag
// query parameter.
func NormalizeTag(tag string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// GetFeed returns the feed for a query, from cache when fresh. The result is
// already sorted by the aggregator; a failing upstream degrades to a partial
// or empty feed rather than an error.
func (s *Service) GetFeed(ctx context.Context, query string) []models.SocialPost {
	return s.cache.Get(ctx, query, s.aggregator.BuildFeed)
}

// RefreshFeed re-warms the cache entry for a query. Used by the periodic
// refresher; safe to run concurrently with GetFeed on the same query.
func (s *Service) RefreshFeed(ctx context.Context, query string) {
	refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.cache.Refresh(refreshCtx, query, s.aggregator.BuildFeed)
}
