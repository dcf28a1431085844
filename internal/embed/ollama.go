package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// defaultOllamaHost is the Ollama endpoint when OLLAMA_HOST is not set.
const defaultOllamaHost = "http://localhost:11434"

// OllamaEmbedder calls a local Ollama server's batch embedding API
// (POST {host}/api/embed with {model, input}).
type OllamaEmbedder struct {
	client *http.Client
	host   string
	model  string
	dims   int
}

// Verify interface implementation at compile time.
var _ Embedder = (*OllamaEmbedder)(nil)

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder builds an embedder against OLLAMA_HOST (default
// http://localhost:11434). No API key is required.
func NewOllamaEmbedder(model string, dims int) (*OllamaEmbedder, error) {
	host := os.Getenv(config.EnvOllamaHost)
	if host == "" {
		host = defaultOllamaHost
	}

	return &OllamaEmbedder{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     10 * time.Second,
			},
		},
		host:  strings.TrimSuffix(host, "/"),
		model: model,
		dims:  dims,
	}, nil
}

// EmbedDocuments embeds texts in a single batch request.
func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	payload, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, errors.InternalError("failed to encode Ollama request", err)
	}

	var vectors [][]float32
	err = withRetry(ctx, DefaultMaxRetries, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(payload))
		if err != nil {
			return errors.InternalError("failed to create Ollama request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return errors.New(errors.ErrCodeEmbeddingAPI, "failed to connect to Ollama", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return errors.New(errors.ErrCodeEmbeddingAPI,
				fmt.Sprintf("Ollama API error (%d): %s", resp.StatusCode, string(respBody)), nil)
		}

		var parsed ollamaEmbedResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return errors.New(errors.ErrCodeEmbeddingAPI, "failed to decode Ollama response", err)
		}

		vectors = parsed.Embeddings
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
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return singleQuery(ctx, e, text)
}

// Dimensions returns the configured embedding dimension.
func (e *OllamaEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *OllamaEmbedder) ModelName() string { return e.model }

// Close releases idle connections.
func (e *OllamaEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
