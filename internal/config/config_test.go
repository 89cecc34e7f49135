package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing API_KEY returns error", func(t *testing.T) {
		t.Setenv("API_KEY", "")

		cfg, err := Load()
		require.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("defaults applied when env unset", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 600*time.Second, cfg.FeedCacheTTL)
		assert.Equal(t, 10*time.Minute, cfg.FeedRefreshInterval)
		assert.InDelta(t, 0.75, cfg.LexicalThreshold, 0.0001)
		assert.InDelta(t, 0.82, cfg.SemanticThreshold, 0.0001)
		assert.Equal(t, 5, cfg.SimilarLimit)
		assert.Equal(t, 15, cfg.FetchResultCap)
		assert.Equal(t, "campusvoice", cfg.FeedDefaultQuery)
	})

	t.Run("invalid threshold rejected", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("SEMANTIC_THRESHOLD", "1.5")

		cfg, err := Load()
		require.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("fetch cap outside 10..20 rejected", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("FETCH_RESULT_CAP", "50")

		cfg, err := Load()
		require.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("refresh queries parsed from comma list", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("FEED_REFRESH_QUERIES", "campuslife, dorms , ")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"campuslife", "dorms"}, cfg.FeedRefreshQueries)
	})
}
