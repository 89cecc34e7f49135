package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusvoice/hub/internal/apperrors"
)

func TestOpenAIClient_CreateEmbedding(t *testing.T) {
	t.Run("missing credential returns ConfigurationError", func(t *testing.T) {
		client := NewOpenAIClient("", "text-embedding-3-small")

		vec, err := client.CreateEmbedding(context.Background(), "wifi down in library")
		assert.Nil(t, vec)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("empty text returns ValidationError", func(t *testing.T) {
		client := NewOpenAIClient("sk-test", "text-embedding-3-small")

		vec, err := client.CreateEmbedding(context.Background(), "   ")
		assert.Nil(t, vec)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("401 from provider returns UpstreamError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
		}))
		defer srv.Close()

		client := NewOpenAIClient("sk-bad", "text-embedding-3-small", WithBaseURL(srv.URL))

		vec, err := client.CreateEmbedding(context.Background(), "projector broken")
		assert.Nil(t, vec)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("success returns first embedding from response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var body struct {
				Input []string `json:"input"`
				Model string   `json:"model"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"projector broken"}, body.Input)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"object": "list",
				"data": [{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3]}],
				"model": "text-embedding-3-small",
				"usage": {"prompt_tokens": 3, "total_tokens": 3}
			}`))
		}))
		defer srv.Close()

		client := NewOpenAIClient("sk-test", "text-embedding-3-small", WithBaseURL(srv.URL))

		vec, err := client.CreateEmbedding(context.Background(), "projector broken")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("empty data array returns UpstreamError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"text-embedding-3-small","usage":{}}`))
		}))
		defer srv.Close()

		client := NewOpenAIClient("sk-test", "text-embedding-3-small", WithBaseURL(srv.URL))

		vec, err := client.CreateEmbedding(context.Background(), "projector broken")
		assert.Nil(t, vec)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})
}

func TestMockClient(t *testing.T) {
	t.Run("deterministic for same input", func(t *testing.T) {
		client := NewMockClientWithDimensions(32)

		v1, err := client.CreateEmbedding(context.Background(), "same text")
		require.NoError(t, err)
		v2, err := client.CreateEmbedding(context.Background(), "same text")
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
		assert.Len(t, v1, 32)
	})

	t.Run("unit magnitude", func(t *testing.T) {
		client := NewMockClientWithDimensions(64)

		v, err := client.CreateEmbedding(context.Background(), "anything")
		require.NoError(t, err)

		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	})
}
