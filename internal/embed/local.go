//go:build localembed

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// E5-family prefixes. The model scores passages and queries in
// different subspaces, so the two call sites must tag their texts.
const (
	passagePrefix = "passage: "
	queryPrefix   = "query: "
)

// LocalEmbedder is the in-process embedder compiled in under the
// localembed build tag. It projects token and character-trigram
// hashes into a fixed-dimensional space and L2-normalizes the result:
// deterministic, offline, and adequate for air-gapped deployments
// where recall quality matters less than availability.
type LocalEmbedder struct {
	model string
	dims  int
}

// Verify interface implementation at compile time.
var _ Embedder = (*LocalEmbedder)(nil)

// NewLocalEmbedder creates the in-process embedder.
func NewLocalEmbedder(model string, dims int) (Embedder, error) {
	return &LocalEmbedder{model: model, dims: dims}, nil
}

// EmbedDocuments embeds ingest-side texts with the E5 passage prefix.
func (e *LocalEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedText(passagePrefix + text)
	}
	return vectors, nil
}

// EmbedQuery embeds a query-side text with the E5 query prefix.
func (e *LocalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embedText(queryPrefix + text), nil
}

// embedText accumulates hashed token and trigram buckets, then
// normalizes to unit length.
func (e *LocalEmbedder) embedText(text string) []float32 {
	vec := make([]float32, e.dims)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		vec[bucket(token, e.dims)] += 1.0

		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			vec[bucket(string(runes[i:i+3]), e.dims)] += 0.5
		}
	}

	return normalize(vec)
}

func bucket(s string, dims int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(dims))
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	for i, val := range v {
		v[i] = float32(float64(val) / magnitude)
	}
	return v
}

// Dimensions returns the configured embedding dimension.
func (e *LocalEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *LocalEmbedder) ModelName() string { return e.model }

// Close is a no-op.
func (e *LocalEmbedder) Close() error { return nil }
