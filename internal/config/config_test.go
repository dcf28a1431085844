package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "http://localhost:6334", cfg.QdrantURL)
	assert.Equal(t, "docs", cfg.CollectionName)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 7070, cfg.ListenPort)
	assert.Equal(t, "openai", cfg.EmbeddingProvider)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimension)
	assert.Equal(t, "default", cfg.Tokenizer)
	assert.Contains(t, cfg.TantivyIndexDir, ".mcp-hybrid-search")
}

func TestLoad(t *testing.T) {
	t.Run("nonexistent path returns defaults", func(t *testing.T) {
		cfg, err := Load("/nonexistent/path/config.toml")
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.ListenPort)
	})

	t.Run("partial file merges over defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		content := "listen_port = 8080\nchunk_size = 500\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.ListenPort)
		assert.Equal(t, 500, cfg.ChunkSize)
		// Defaults for unspecified fields
		assert.Equal(t, "docs", cfg.CollectionName)
		assert.Equal(t, 1536, cfg.EmbeddingDimension)
	})

	t.Run("malformed toml is a config error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("listen_port = ["), 0o644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
	})
}

func TestWithProject(t *testing.T) {
	t.Run("suffixes collection and index dir", func(t *testing.T) {
		cfg := NewConfig()
		scoped := cfg.WithProject("wiki")

		assert.Equal(t, "docs_wiki", scoped.CollectionName)
		assert.Equal(t, filepath.Base(scoped.TantivyIndexDir), "tantivy_wiki")
		// Original untouched.
		assert.Equal(t, "docs", cfg.CollectionName)
	})

	t.Run("empty project is a no-op", func(t *testing.T) {
		cfg := NewConfig()
		assert.Same(t, cfg, cfg.WithProject(""))
	})
}

func TestStatePath(t *testing.T) {
	cfg := NewConfig()
	cfg.TantivyIndexDir = "/data/idx/tantivy"

	assert.Equal(t, "/data/idx/ingest_state.json", cfg.StatePath())
	assert.Equal(t, "/data/idx/ingest.lock", cfg.LockPath())
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return NewConfig() }

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects bad values", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Config)
			code   string
		}{
			{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, errors.ErrCodeConfigInvalid},
			{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, errors.ErrCodeConfigInvalid},
			{"port out of range", func(c *Config) { c.ListenPort = 70000 }, errors.ErrCodeConfigInvalid},
			{"zero dimension", func(c *Config) { c.EmbeddingDimension = 0 }, errors.ErrCodeConfigInvalid},
			{"unknown provider", func(c *Config) { c.EmbeddingProvider = "cohere" }, errors.ErrCodeProviderUnknown},
			{"unknown tokenizer", func(c *Config) { c.Tokenizer = "thai" }, errors.ErrCodeTokenizerUnknown},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := valid()
				tt.mutate(cfg)
				err := cfg.Validate()
				require.Error(t, err)
				assert.Equal(t, tt.code, errors.GetCode(err))
				assert.True(t, errors.IsFatal(err))
			})
		}
	})

	t.Run("all providers accepted", func(t *testing.T) {
		for _, p := range []string{"openai", "gemini", "local", "ollama"} {
			cfg := valid()
			cfg.EmbeddingProvider = p
			assert.NoError(t, cfg.Validate(), "provider %s", p)
		}
	})
}
