// Package worker provides background workers for the hub API.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// FeedRefreshService defines the feed operations the refresher needs.
type FeedRefreshService interface {
	RefreshFeed(ctx context.Context, query string)
}

// FeedRefresher is a background worker that periodically re-warms the feed
// cache for a configured set of campaign queries, so the first page load
// after an expiry does not pay the fetch latency.
type FeedRefresher struct {
	service  FeedRefreshService
	queries  []string
	interval time.Duration
}

// NewFeedRefresher creates a new feed refresher worker.
func NewFeedRefresher(service FeedRefreshService, queries []string, interval time.Duration) *FeedRefresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &FeedRefresher{
		service:  service,
		queries:  queries,
		interval: interval,
	}
}

// Start begins the background worker loop. It runs until the context is cancelled.
func (w *FeedRefresher) Start(ctx context.Context) {
	if len(w.queries) == 0 {
		slog.Info("feed refresher disabled: no queries configured")
		return
	}

	slog.Info("feed refresher started",
		"interval", w.interval,
		"queries", len(w.queries),
	)

	// Run immediately on startup
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("feed refresher stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *FeedRefresher) runOnce(ctx context.Context) {
	for _, query := range w.queries {
		if ctx.Err() != nil {
			return
		}

		w.service.RefreshFeed(ctx, query)
	}
}
