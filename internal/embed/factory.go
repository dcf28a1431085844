package embed

import (
	"fmt"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// NewEmbedder constructs the embedder selected by
// cfg.EmbeddingProvider. Query embeddings are LRU-cached for every
// provider.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		inner, err = NewOpenAIEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimension)
	case config.ProviderGemini:
		inner, err = NewGeminiEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimension)
	case config.ProviderOllama:
		inner, err = NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimension)
	case config.ProviderLocal:
		inner, err = NewLocalEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimension)
	default:
		return nil, errors.New(errors.ErrCodeProviderUnknown,
			fmt.Sprintf("unknown embedding provider: %s", cfg.EmbeddingProvider), nil).
			WithSuggestion("set embedding_provider to openai, gemini, local, or ollama")
	}
	if err != nil {
		return nil, err
	}

	return NewCachedEmbedder(inner, DefaultCacheSize)
}
