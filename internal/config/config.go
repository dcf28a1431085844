// Package config loads and validates mcp-hybrid-search configuration.
//
// Configuration lives in a TOML file. Any key may be omitted and takes
// its default. Load order: explicit path, ./config.toml, then
// ~/.mcp-hybrid-search/config.toml, falling back to pure defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// Environment variables read by the embedding providers.
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIAPIBase = "OPENAI_API_BASE"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGeminiAPIBase = "GEMINI_API_BASE"
	EnvOllamaHost    = "OLLAMA_HOST"
)

// Supported values for the embedding_provider key.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
	ProviderOllama = "ollama"
)

// Supported values for the tokenizer key.
const (
	TokenizerDefault  = "default"
	TokenizerJapanese = "japanese"
	TokenizerKorean   = "korean"
	TokenizerChinese  = "chinese"
)

// Config is the complete mcp-hybrid-search configuration.
type Config struct {
	QdrantURL          string `toml:"qdrant_url"`
	CollectionName     string `toml:"collection_name"`
	TantivyIndexDir    string `toml:"tantivy_index_dir"`
	ChunkSize          int    `toml:"chunk_size"`
	ChunkOverlap       int    `toml:"chunk_overlap"`
	ListenPort         int    `toml:"listen_port"`
	EmbeddingProvider  string `toml:"embedding_provider"`
	EmbeddingModel     string `toml:"embedding_model"`
	EmbeddingDimension int    `toml:"embedding_dimension"`
	Tokenizer          string `toml:"tokenizer"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		QdrantURL:          "http://localhost:6334",
		CollectionName:     "docs",
		TantivyIndexDir:    filepath.Join(homeDir(), ".mcp-hybrid-search", "tantivy"),
		ChunkSize:          1000,
		ChunkOverlap:       200,
		ListenPort:         7070,
		EmbeddingProvider:  ProviderOpenAI,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 1536,
		Tokenizer:          TokenizerDefault,
	}
}

// Load reads configuration from the given path, or from the default
// locations when path is empty. Missing files yield pure defaults;
// partial files merge over defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Explicit paths that do not exist still yield defaults,
			// matching the loader's lenient contract.
			return cfg, nil
		}
		return nil, errors.New(errors.ErrCodeConfigNotFound,
			fmt.Sprintf("cannot read config file %s", configPath), err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse config file %s: %v", configPath, err), err)
	}

	return cfg, nil
}

// findConfigFile probes the default config locations in order.
func findConfigFile() string {
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	candidate := filepath.Join(homeDir(), ".mcp-hybrid-search", "config.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// WithProject returns a copy of the config namespaced for the given
// project: the collection name gains a "_<project>" suffix and the
// lexical index moves to a per-project subdirectory. An empty project
// returns the config unchanged.
func (c *Config) WithProject(project string) *Config {
	if project == "" {
		return c
	}
	out := *c
	out.CollectionName = c.CollectionName + "_" + project
	out.TantivyIndexDir = filepath.Join(filepath.Dir(c.TantivyIndexDir),
		filepath.Base(c.TantivyIndexDir)+"_"+project)
	return &out
}

// StatePath returns the ingest state file location: a sibling of the
// lexical index directory.
func (c *Config) StatePath() string {
	return filepath.Join(filepath.Dir(c.TantivyIndexDir), "ingest_state.json")
}

// LockPath returns the single-ingester lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.TantivyIndexDir), "ingest.lock")
}

// DefaultSourceDir returns the default document source directory
// (~/.local/share/mcp-hybrid-search).
func DefaultSourceDir() string {
	return filepath.Join(homeDir(), ".local", "share", "mcp-hybrid-search")
}

// DefaultConfigDir returns the configuration directory
// (~/.mcp-hybrid-search).
func DefaultConfigDir() string {
	return filepath.Join(homeDir(), ".mcp-hybrid-search")
}

// Validate checks the configuration for values that would fail at
// first use. Returns a fatal configuration error on the first problem.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.ConfigError(fmt.Sprintf("chunk_size must be positive, got %d", c.ChunkSize), nil)
	}
	if c.ChunkOverlap < 0 {
		return errors.ConfigError(fmt.Sprintf("chunk_overlap must be non-negative, got %d", c.ChunkOverlap), nil)
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return errors.ConfigError(fmt.Sprintf("listen_port must be in 1-65535, got %d", c.ListenPort), nil)
	}
	if c.EmbeddingDimension <= 0 {
		return errors.ConfigError(fmt.Sprintf("embedding_dimension must be positive, got %d", c.EmbeddingDimension), nil)
	}
	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderGemini, ProviderLocal, ProviderOllama:
	default:
		return errors.New(errors.ErrCodeProviderUnknown,
			fmt.Sprintf("unknown embedding_provider %q (supported: openai, gemini, local, ollama)", c.EmbeddingProvider), nil)
	}
	switch c.Tokenizer {
	case TokenizerDefault, TokenizerJapanese, TokenizerKorean, TokenizerChinese:
	default:
		return errors.New(errors.ErrCodeTokenizerUnknown,
			fmt.Sprintf("unknown tokenizer %q (supported: default, japanese, korean, chinese)", c.Tokenizer), nil)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
