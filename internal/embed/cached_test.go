package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records call counts for cache assertions.
type countingEmbedder struct {
	docCalls   int
	queryCalls int
	dims       int
}

func (e *countingEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.docCalls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, e.dims)
	}
	return vectors, nil
}

func (e *countingEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	e.queryCalls++
	return make([]float32, e.dims), nil
}

func (e *countingEmbedder) Dimensions() int   { return e.dims }
func (e *countingEmbedder) ModelName() string { return "counting" }
func (e *countingEmbedder) Close() error      { return nil }

func TestCachedEmbedder(t *testing.T) {
	t.Run("repeated query hits cache", func(t *testing.T) {
		inner := &countingEmbedder{dims: 4}
		e, err := NewCachedEmbedder(inner, 10)
		require.NoError(t, err)

		ctx := context.Background()
		_, err = e.EmbedQuery(ctx, "same question")
		require.NoError(t, err)
		_, err = e.EmbedQuery(ctx, "same question")
		require.NoError(t, err)

		assert.Equal(t, 1, inner.queryCalls)
	})

	t.Run("distinct queries miss", func(t *testing.T) {
		inner := &countingEmbedder{dims: 4}
		e, err := NewCachedEmbedder(inner, 10)
		require.NoError(t, err)

		ctx := context.Background()
		_, err = e.EmbedQuery(ctx, "first")
		require.NoError(t, err)
		_, err = e.EmbedQuery(ctx, "second")
		require.NoError(t, err)

		assert.Equal(t, 2, inner.queryCalls)
	})

	t.Run("document embedding is never cached", func(t *testing.T) {
		inner := &countingEmbedder{dims: 4}
		e, err := NewCachedEmbedder(inner, 10)
		require.NoError(t, err)

		ctx := context.Background()
		_, err = e.EmbedDocuments(ctx, []string{"doc"})
		require.NoError(t, err)
		_, err = e.EmbedDocuments(ctx, []string{"doc"})
		require.NoError(t, err)

		assert.Equal(t, 2, inner.docCalls)
	})

	t.Run("LRU evicts beyond capacity", func(t *testing.T) {
		inner := &countingEmbedder{dims: 4}
		e, err := NewCachedEmbedder(inner, 1)
		require.NoError(t, err)

		ctx := context.Background()
		_, _ = e.EmbedQuery(ctx, "first")
		_, _ = e.EmbedQuery(ctx, "second")
		_, _ = e.EmbedQuery(ctx, "first")

		assert.Equal(t, 3, inner.queryCalls)
	})

	t.Run("delegates metadata", func(t *testing.T) {
		inner := &countingEmbedder{dims: 4}
		e, err := NewCachedEmbedder(inner, 10)
		require.NoError(t, err)

		assert.Equal(t, 4, e.Dimensions())
		assert.Equal(t, "counting", e.ModelName())
		assert.NoError(t, e.Close())
	})
}
