// Package embed maps text to dense float vectors via a pluggable
// provider (openai, gemini, ollama, or a compile-time-optional local
// embedder). The batch contract is order-preserving and atomic: a
// call either returns one vector per input text or fails as a whole.
package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// DefaultTimeout is the per-request timeout for embedding HTTP calls.
const DefaultTimeout = 60 * time.Second

// DefaultMaxRetries is the number of retry attempts for transient
// upstream failures.
const DefaultMaxRetries = 3

// Embedder generates vector embeddings for text. Document and query
// embedding are distinct entry points because some models (E5 family)
// require different text prefixes per call site.
type Embedder interface {
	// EmbedDocuments generates embeddings for ingest-side texts,
	// one vector per input in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a query-side text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// validateBatch enforces the batch contract: one vector per input and
// every vector at the configured dimensionality. A dimension mismatch
// is a fatal configuration error, never auto-adjusted.
func validateBatch(vectors [][]float32, wantCount, wantDim int) error {
	if len(vectors) != wantCount {
		return errors.New(errors.ErrCodeEmbeddingAPI,
			fmt.Sprintf("embedding count mismatch: sent %d texts, got %d vectors", wantCount, len(vectors)), nil)
	}
	for i, v := range vectors {
		if len(v) != wantDim {
			return errors.New(errors.ErrCodeDimensionMismatch,
				fmt.Sprintf("embedding dimension mismatch at index %d: configured %d, got %d", i, wantDim, len(v)), nil).
				WithSuggestion("check embedding_dimension in config.toml against the model")
		}
	}
	return nil
}

// singleQuery implements EmbedQuery as EmbedDocuments([t])[0] for
// providers without query-side prefixes.
func singleQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New(errors.ErrCodeEmbeddingAPI, "no embedding returned", nil)
	}
	return vectors[0], nil
}

// withRetry runs fn up to maxRetries+1 times, backing off
// exponentially (100ms << attempt) between attempts. Only retryable
// errors are retried; context cancellation stops immediately.
func withRetry(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100<<uint(attempt-1)) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
