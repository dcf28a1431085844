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

// defaultGeminiBase is the Gemini API base URL when GEMINI_API_BASE
// is not set.
const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiEmbedder calls the Gemini batch embedding API
// (POST {base}/{models/<model>}:batchEmbedContents?key=...).
type GeminiEmbedder struct {
	client *http.Client
	apiKey string
	base   string
	model  string
	dims   int
}

// Verify interface implementation at compile time.
var _ Embedder = (*GeminiEmbedder)(nil)

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// NewGeminiEmbedder builds an embedder from the GEMINI_API_KEY and
// optional GEMINI_API_BASE environment variables.
func NewGeminiEmbedder(model string, dims int) (*GeminiEmbedder, error) {
	apiKey := os.Getenv(config.EnvGeminiAPIKey)
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeAPIKeyMissing,
			"GEMINI_API_KEY environment variable not set", nil).
			WithSuggestion("export GEMINI_API_KEY or switch embedding_provider")
	}

	base := os.Getenv(config.EnvGeminiAPIBase)
	if base == "" {
		base = defaultGeminiBase
	}

	return &GeminiEmbedder{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		apiKey: apiKey,
		base:   strings.TrimSuffix(base, "/"),
		model:  model,
		dims:   dims,
	}, nil
}

// modelPath returns the model reference with its "models/" prefix,
// adding it when the configured name lacks one.
func (e *GeminiEmbedder) modelPath() string {
	if strings.HasPrefix(e.model, "models/") {
		return e.model
	}
	return "models/" + e.model
}

// EmbedDocuments embeds texts in one batchEmbedContents request with
// requests[] parallel to the inputs.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		body.Requests[i] = geminiEmbedRequest{
			Model:   e.modelPath(),
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.InternalError("failed to encode Gemini request", err)
	}

	url := fmt.Sprintf("%s/%s:batchEmbedContents?key=%s", e.base, e.modelPath(), e.apiKey)

	var vectors [][]float32
	err = withRetry(ctx, DefaultMaxRetries, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return errors.InternalError("failed to create Gemini request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return errors.New(errors.ErrCodeEmbeddingAPI, "Gemini request failed", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return errors.New(errors.ErrCodeEmbeddingAPI,
				fmt.Sprintf("Gemini API error (%d): %s", resp.StatusCode, string(respBody)), nil)
		}

		var parsed geminiBatchResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return errors.New(errors.ErrCodeEmbeddingAPI, "failed to decode Gemini response", err)
		}

		vectors = make([][]float32, len(parsed.Embeddings))
		for i, emb := range parsed.Embeddings {
			vectors[i] = emb.Values
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
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return singleQuery(ctx, e, text)
}

// Dimensions returns the configured embedding dimension.
func (e *GeminiEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *GeminiEmbedder) ModelName() string { return e.model }

// Close releases idle connections.
func (e *GeminiEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
