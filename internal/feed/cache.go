package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/campusvoice/hub/internal/models"
)

// cacheSize bounds the in-memory entry count. Distinct queries are few at the
// expected scale; the LRU bound is generous headroom, not an eviction policy.
const cacheSize = 1024

// Loader produces a fresh feed for a query on cache miss or staleness.
type Loader func(ctx context.Context, query string) []models.SocialPost

// cacheEntry pairs a payload with the moment it was fetched. Freshness is
// always judged against fetchedAt, so an artifact warmed after a restart
// keeps only its remaining lifetime rather than a full TTL.
type cacheEntry struct {
	posts     []models.SocialPost
	fetchedAt time.Time
}

// Cache is a TTL-bounded feed cache keyed by query. Entries are replaced
// wholesale on refresh, never merged. Concurrent refreshes of the same key
// are coalesced with singleflight so periodic and on-demand invocations of
// one query never interleave partial writes; last writer wins.
//
// When a directory is configured, each entry is additionally persisted as one
// JSON array artifact per query hash, with the file mtime serving as
// fetchedAt, so a restarted process can serve still-fresh feeds.
type Cache struct {
	lru    *expirable.LRU[string, cacheEntry]
	group  singleflight.Group
	ttl    time.Duration
	dir    string
	logger *slog.Logger
}

// NewCache creates a feed cache with the given TTL. dir is optional; when
// empty, no artifacts are persisted.
func NewCache(ttl time.Duration, dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		lru:    expirable.NewLRU[string, cacheEntry](cacheSize, nil, ttl),
		ttl:    ttl,
		dir:    dir,
		logger: logger,
	}
}

// QueryKey computes the stable cache key: a content hash of the trimmed,
// case-preserved query string.
func QueryKey(query string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(query)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached payload verbatim when the entry is fresh, otherwise
// loads through the aggregator path, overwrites the entry, and returns the
// new payload. A burst of concurrent misses for one key triggers one load.
func (c *Cache) Get(ctx context.Context, query string, load Loader) []models.SocialPost {
	key := QueryKey(query)

	if entry, ok := c.lru.Get(key); ok && c.fresh(entry) {
		return entry.posts
	}

	val, _, _ := c.group.Do(key, func() (any, error) {
		// Re-check after winning the flight; a concurrent refresh may have landed.
		if entry, ok := c.lru.Get(key); ok && c.fresh(entry) {
			return entry.posts, nil
		}

		if entry, ok := c.loadArtifact(key); ok {
			c.lru.Add(key, entry)
			return entry.posts, nil
		}

		posts := load(ctx, query)
		c.store(key, posts)

		return posts, nil
	})

	return val.([]models.SocialPost)
}

// Refresh forces a reload for the query regardless of entry freshness,
// overwriting both the in-memory entry and the persisted artifact.
func (c *Cache) Refresh(ctx context.Context, query string, load Loader) []models.SocialPost {
	key := QueryKey(query)

	val, _, _ := c.group.Do(key, func() (any, error) {
		posts := load(ctx, query)
		c.store(key, posts)

		return posts, nil
	})

	return val.([]models.SocialPost)
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) fresh(entry cacheEntry) bool {
	return time.Since(entry.fetchedAt) < c.ttl
}

func (c *Cache) store(key string, posts []models.SocialPost) {
	c.lru.Add(key, cacheEntry{posts: posts, fetchedAt: time.Now()})
	c.storeArtifact(key, posts)
}

func (c *Cache) artifactPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// loadArtifact reads a persisted entry when its mtime is still within TTL.
// The mtime is carried along as fetchedAt, so the warmed entry expires when
// the artifact would have, not a full TTL later.
func (c *Cache) loadArtifact(key string) (cacheEntry, bool) {
	if c.dir == "" {
		return cacheEntry{}, false
	}

	path := c.artifactPath(key)

	info, err := os.Stat(path)
	if err != nil {
		return cacheEntry{}, false
	}

	if time.Since(info.ModTime()) >= c.ttl {
		return cacheEntry{}, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("feed cache artifact read failed", "path", path, "error", err)
		return cacheEntry{}, false
	}

	var posts []models.SocialPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.logger.Warn("feed cache artifact decode failed", "path", path, "error", err)
		return cacheEntry{}, false
	}

	return cacheEntry{posts: posts, fetchedAt: info.ModTime()}, true
}

func (c *Cache) storeArtifact(key string, posts []models.SocialPost) {
	if c.dir == "" {
		return
	}

	raw, err := json.Marshal(posts)
	if err != nil {
		c.logger.Warn("feed cache artifact encode failed", "error", err)
		return
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Warn("feed cache dir create failed", "dir", c.dir, "error", err)
		return
	}

	if err := os.WriteFile(c.artifactPath(key), raw, 0o644); err != nil {
		c.logger.Warn("feed cache artifact write failed", "error", err)
	}
}
