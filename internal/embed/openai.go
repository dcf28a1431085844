package embed

import (
	"context"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// OpenAIEmbedder calls the OpenAI embeddings API
// (POST {base}/embeddings with {model, input: [texts...]}).
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dims   int
}

// Verify interface implementation at compile time.
var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds an embedder from the OPENAI_API_KEY and
// optional OPENAI_API_BASE environment variables. A missing key is a
// fatal configuration error.
func NewOpenAIEmbedder(model string, dims int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(config.EnvOpenAIAPIKey)
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeAPIKeyMissing,
			"OPENAI_API_KEY environment variable not set", nil).
			WithSuggestion("export OPENAI_API_KEY or switch embedding_provider")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := os.Getenv(config.EnvOpenAIAPIBase); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
		dims:   dims,
	}, nil
}

// EmbedDocuments embeds texts in a single batch request. The response
// preserves input order.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var vectors [][]float32
	err := withRetry(ctx, DefaultMaxRetries, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()

		resp, err := e.client.Embeddings.New(reqCtx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return errors.New(errors.ErrCodeEmbeddingAPI, "OpenAI embeddings request failed", err)
		}

		vectors = make([][]float32, len(resp.Data))
		for _, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			for j, f := range item.Embedding {
				vec[j] = float32(f)
			}
			vectors[item.Index] = vec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := validateBatch(vectors, len(texts), e.dims); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return singleQuery(ctx, e, text)
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Close is a no-op; the SDK client holds no persistent resources.
func (e *OpenAIEmbedder) Close() error { return nil }
