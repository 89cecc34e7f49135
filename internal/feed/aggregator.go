// Package feed merges, caches, and serves the aggregated social feed.
package feed

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/campusvoice/hub/internal/fetch"
	"github.com/campusvoice/hub/internal/models"
)

// Aggregator fans a query out to all configured fetcher adapters, normalizes
// the results, and returns one feed sorted descending by creation time.
type Aggregator struct {
	fetchers []fetch.Fetcher
	logger   *slog.Logger
}

// NewAggregator creates an aggregator over the given adapters. Adapter order
// is significant: it decides tie ordering for equal timestamps.
func NewAggregator(fetchers []fetch.Fetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		fetchers: fetchers,
		logger:   logger,
	}
}

// sortablePost keeps the adapter index alongside the post for tie-breaking.
type sortablePost struct {
	post       models.SocialPost
	adapterIdx int
}

// BuildFeed fetches from every adapter concurrently, drops failing adapters
// (they contribute zero items for the cycle), filters within-source duplicate
// external IDs (last seen wins), and sorts the merged result.
func (a *Aggregator) BuildFeed(ctx context.Context, query string) []models.SocialPost {
	perAdapter := make([][]models.SocialPost, len(a.fetchers))

	g, gctx := errgroup.WithContext(ctx)

	for i, f := range a.fetchers {
		g.Go(func() error {
			items, err := f.FetchRawItems(gctx, query)
			if err != nil {
				a.logger.Warn("adapter fetch failed, contributing zero items",
					"platform", string(f.Platform()), "error", err, "query", query)

				return nil
			}

			posts := make([]models.SocialPost, 0, len(items))
			for _, item := range items {
				posts = append(posts, fetch.Normalize(item, f.Platform()))
			}

			perAdapter[i] = dedupeWithinSource(posts)

			return nil
		})
	}

	// Adapter errors are swallowed above; Wait only propagates ctx issues.
	_ = g.Wait()

	var merged []sortablePost
	for idx, posts := range perAdapter {
		for _, p := range posts {
			merged = append(merged, sortablePost{post: p, adapterIdx: idx})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := merged[i].post.CreatedAt, merged[j].post.CreatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		if merged[i].adapterIdx != merged[j].adapterIdx {
			return merged[i].adapterIdx < merged[j].adapterIdx
		}
		return merged[i].post.ExternalID < merged[j].post.ExternalID
	})

	feed := make([]models.SocialPost, len(merged))
	for i, sp := range merged {
		feed[i] = sp.post
	}

	return feed
}

// dedupeWithinSource drops earlier occurrences of a repeated external ID so
// the last-seen item wins. Cross-platform collisions are impossible and not
// checked here.
func dedupeWithinSource(posts []models.SocialPost) []models.SocialPost {
	seen := make(map[string]struct{}, len(posts))
	kept := make([]models.SocialPost, 0, len(posts))

	for i := len(posts) - 1; i >= 0; i-- {
		id := posts[i].ExternalID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, posts[i])
	}

	// Restore original relative order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return kept
}
