package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

func TestNewEmbedder(t *testing.T) {
	t.Run("openai provider", func(t *testing.T) {
		t.Setenv(config.EnvOpenAIAPIKey, "test-key")
		cfg := config.NewConfig()
		cfg.EmbeddingProvider = config.ProviderOpenAI

		e, err := NewEmbedder(cfg)
		require.NoError(t, err)
		defer func() { _ = e.Close() }()

		assert.Equal(t, cfg.EmbeddingDimension, e.Dimensions())
		assert.Equal(t, cfg.EmbeddingModel, e.ModelName())
	})

	t.Run("openai without key fails", func(t *testing.T) {
		t.Setenv(config.EnvOpenAIAPIKey, "")
		cfg := config.NewConfig()
		cfg.EmbeddingProvider = config.ProviderOpenAI

		_, err := NewEmbedder(cfg)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAPIKeyMissing, errors.GetCode(err))
	})

	t.Run("ollama provider needs no key", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.EmbeddingProvider = config.ProviderOllama
		cfg.EmbeddingModel = "nomic-embed-text"
		cfg.EmbeddingDimension = 768

		e, err := NewEmbedder(cfg)
		require.NoError(t, err)
		defer func() { _ = e.Close() }()

		assert.Equal(t, 768, e.Dimensions())
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.EmbeddingProvider = "cohere"

		_, err := NewEmbedder(cfg)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeProviderUnknown, errors.GetCode(err))
	})
}
