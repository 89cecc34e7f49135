package feed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusvoice/hub/internal/models"
)

func countingLoader(posts []models.SocialPost) (Loader, *int) {
	calls := 0
	return func(_ context.Context, _ string) []models.SocialPost {
		calls++
		return posts
	}, &calls
}

func samplePosts() []models.SocialPost {
	return []models.SocialPost{
		{Platform: models.PlatformReddit, ExternalID: "a", Text: "hello", CreatedAt: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)},
		{Platform: models.PlatformMirror, ExternalID: "b", Text: "world", CreatedAt: time.Date(2024, 1, 5, 11, 0, 0, 0, time.UTC)},
	}
}

func TestCache_Get(t *testing.T) {
	t.Run("read within TTL returns the exact previous payload without loading", func(t *testing.T) {
		cache := NewCache(10*time.Minute, "", nil)
		load, calls := countingLoader(samplePosts())

		first := cache.Get(context.Background(), "campus wifi", load)
		second := cache.Get(context.Background(), "campus wifi", load)

		assert.Equal(t, 1, *calls)
		assert.Equal(t, first, second)
	})

	t.Run("query trimming maps to the same key", func(t *testing.T) {
		cache := NewCache(10*time.Minute, "", nil)
		load, calls := countingLoader(samplePosts())

		cache.Get(context.Background(), "campus", load)
		cache.Get(context.Background(), "  campus  ", load)

		assert.Equal(t, 1, *calls)
	})

	t.Run("case is preserved in the key", func(t *testing.T) {
		cache := NewCache(10*time.Minute, "", nil)
		load, calls := countingLoader(samplePosts())

		cache.Get(context.Background(), "Campus", load)
		cache.Get(context.Background(), "campus", load)

		assert.Equal(t, 2, *calls)
	})

	t.Run("stale entry is refreshed", func(t *testing.T) {
		cache := NewCache(50*time.Millisecond, "", nil)
		load, calls := countingLoader(samplePosts())

		cache.Get(context.Background(), "campus", load)
		time.Sleep(80 * time.Millisecond)
		cache.Get(context.Background(), "campus", load)

		assert.Equal(t, 2, *calls)
	})

	t.Run("concurrent misses for one key coalesce into one load", func(t *testing.T) {
		cache := NewCache(10*time.Minute, "", nil)

		var mu sync.Mutex
		calls := 0
		slowLoad := func(_ context.Context, _ string) []models.SocialPost {
			mu.Lock()
			calls++
			mu.Unlock()
			time.Sleep(30 * time.Millisecond)
			return samplePosts()
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cache.Get(context.Background(), "campus", slowLoad)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, calls)
	})
}

func TestCache_Artifacts(t *testing.T) {
	t.Run("refresh persists one JSON artifact per query hash", func(t *testing.T) {
		dir := t.TempDir()
		cache := NewCache(10*time.Minute, dir, nil)
		load, _ := countingLoader(samplePosts())

		cache.Get(context.Background(), "campus", load)

		path := filepath.Join(dir, QueryKey("campus")+".json")
		raw, err := os.ReadFile(path)
		require.NoError(t, err)

		var persisted []models.SocialPost
		require.NoError(t, json.Unmarshal(raw, &persisted))
		assert.Equal(t, samplePosts(), persisted)
	})

	t.Run("fresh artifact serves a new cache instance without loading", func(t *testing.T) {
		dir := t.TempDir()

		warm := NewCache(10*time.Minute, dir, nil)
		load, calls := countingLoader(samplePosts())
		warm.Get(context.Background(), "campus", load)

		cold := NewCache(10*time.Minute, dir, nil)
		posts := cold.Get(context.Background(), "campus", load)

		assert.Equal(t, 1, *calls)
		assert.Equal(t, samplePosts(), posts)
	})

	t.Run("stale artifact is ignored", func(t *testing.T) {
		dir := t.TempDir()

		warm := NewCache(10*time.Minute, dir, nil)
		load, calls := countingLoader(samplePosts())
		warm.Get(context.Background(), "campus", load)

		// Backdate the artifact mtime past the TTL.
		path := filepath.Join(dir, QueryKey("campus")+".json")
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))

		cold := NewCache(10*time.Minute, dir, nil)
		cold.Get(context.Background(), "campus", load)

		assert.Equal(t, 2, *calls)
	})

	t.Run("warmed artifact keeps only its remaining lifetime", func(t *testing.T) {
		dir := t.TempDir()
		load, calls := countingLoader(samplePosts())

		warm := NewCache(300*time.Millisecond, dir, nil)
		warm.Get(context.Background(), "campus", load)

		// Artifact is 200ms old when the new instance warms from it, so it
		// has 100ms of freshness left, not a fresh 300ms.
		path := filepath.Join(dir, QueryKey("campus")+".json")
		fetched := time.Now().Add(-200 * time.Millisecond)
		require.NoError(t, os.Chtimes(path, fetched, fetched))

		cold := NewCache(300*time.Millisecond, dir, nil)
		cold.Get(context.Background(), "campus", load)
		assert.Equal(t, 1, *calls)

		time.Sleep(200 * time.Millisecond)

		cold.Get(context.Background(), "campus", load)
		assert.Equal(t, 2, *calls)
	})
}

func TestCache_Refresh(t *testing.T) {
	t.Run("refresh reloads even when fresh", func(t *testing.T) {
		cache := NewCache(10*time.Minute, "", nil)
		load, calls := countingLoader(samplePosts())

		cache.Get(context.Background(), "campus", load)
		cache.Refresh(context.Background(), "campus", load)

		assert.Equal(t, 2, *calls)
	})

	t.Run("entry is replaced wholesale", func(t *testing.T) {
		cache := NewCache(10*time.Minute, "", nil)

		loadA, _ := countingLoader(samplePosts())
		cache.Get(context.Background(), "campus", loadA)

		replacement := []models.SocialPost{{Platform: models.PlatformReddit, ExternalID: "z", Text: "new"}}
		loadB, _ := countingLoader(replacement)
		cache.Refresh(context.Background(), "campus", loadB)

		got := cache.Get(context.Background(), "campus", loadA)
		assert.Equal(t, replacement, got)
	})
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, QueryKey("campus"), QueryKey("  campus "))
	assert.NotEqual(t, QueryKey("campus"), QueryKey("Campus"))
	assert.Len(t, QueryKey("campus"), 64)
}
