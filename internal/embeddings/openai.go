package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/campusvoice/hub/internal/apperrors"
)

// OpenAIClient implements the Client interface using an OpenAI-compatible
// embedding API. The provider is authenticated via bearer credential; retries,
// if any, belong to the caller.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
	hasKey bool
}

// Ensure OpenAIClient implements Client interface
var _ Client = (*OpenAIClient)(nil)

// OpenAIOption configures the OpenAIClient.
type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL points the client at a non-default endpoint (e.g. a proxy or a
// test server).
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *openai.ClientConfig) {
		c.BaseURL = baseURL
	}
}

// NewOpenAIClient creates an embedding client.
// An empty apiKey is permitted at construction time; CreateEmbedding then
// fails with a ConfigurationError so the caller degrades instead of crashing.
func NewOpenAIClient(apiKey, model string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}

	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
		hasKey: apiKey != "",
	}
}

// CreateEmbedding generates an embedding vector for the given text.
// Fails with ConfigurationError when no credential is configured,
// ValidationError when text is empty after trimming, and UpstreamError when
// the remote call errors, times out, or returns a non-success status.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !c.hasKey {
		return nil, apperrors.NewConfigurationError("OPENAI_API_KEY", "embedding credential is not configured")
	}

	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text", "text cannot be empty")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("embedding", fmt.Sprintf("create embedding: %v", err))
	}

	if len(resp.Data) == 0 {
		return nil, apperrors.NewUpstreamError("embedding", "no embedding returned from API")
	}

	return resp.Data[0].Embedding, nil
}
