package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/searchfold/mcp-hybrid-search/internal/embed"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// CandidateLimit is the per-engine candidate depth requested from each
// retrieval engine before fusion. Fetching deeper than the final topK
// lets RRF promote documents that rank mid-list in both engines.
const CandidateLimit = 30

// VectorStore is the dense retrieval surface the searcher needs.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, topK int, filters *store.SearchFilters) ([]*store.SearchResult, error)
	Get(ctx context.Context, chunkID string) (*store.Chunk, error)
}

// LexicalStore is the BM25 retrieval surface the searcher needs.
type LexicalStore interface {
	Search(ctx context.Context, query string, topK int, filters *store.SearchFilters) ([]*store.SearchResult, error)
}

// HybridSearcher runs dense and lexical retrieval in parallel and
// fuses the ranked lists with RRF. Either engine may fail without
// failing the query: the searcher degrades to the surviving engine
// and only errors when both are unavailable.
type HybridSearcher struct {
	vector   VectorStore
	lexical  LexicalStore
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewHybridSearcher wires the two retrieval engines and the query
// embedder together.
func NewHybridSearcher(vector VectorStore, lexical LexicalStore, embedder embed.Embedder, logger *slog.Logger) *HybridSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridSearcher{
		vector:   vector,
		lexical:  lexical,
		embedder: embedder,
		logger:   logger,
	}
}

// Search runs the hybrid query and returns at most topK fused results.
// A blank query is a validation error. topK values below 1 default
// to 5.
func (s *HybridSearcher) Search(ctx context.Context, query string, topK int, filters *store.SearchFilters) ([]*store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "search query must not be empty", nil)
	}
	if topK < 1 {
		topK = 5
	}

	var (
		vectorResults  []*store.SearchResult
		lexicalResults []*store.SearchResult
		vectorErr      error
		lexicalErr     error
	)

	// Both branches always run to completion: a failure in one must
	// not cancel the other, so errors are recorded instead of
	// returned to the group.
	var g errgroup.Group
	g.Go(func() error {
		queryVec, err := s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			vectorErr = err
			return nil
		}
		vectorResults, vectorErr = s.vector.Search(ctx, queryVec, CandidateLimit, filters)
		return nil
	})
	g.Go(func() error {
		lexicalResults, lexicalErr = s.lexical.Search(ctx, query, CandidateLimit, filters)
		return nil
	})
	_ = g.Wait()

	switch {
	case vectorErr != nil && lexicalErr != nil:
		return nil, errors.New(errors.ErrCodeSearchFailed,
			fmt.Sprintf("both retrieval engines failed: vector: %v; lexical: %v", vectorErr, lexicalErr), vectorErr)
	case vectorErr != nil:
		s.logger.Warn("vector_search_degraded",
			slog.String("error", vectorErr.Error()))
	case lexicalErr != nil:
		s.logger.Warn("lexical_search_degraded",
			slog.String("error", lexicalErr.Error()))
	}

	results := fuseRRF(vectorResults, lexicalResults, DefaultRRFConstant, topK)

	s.logger.Debug("hybrid_search_complete",
		slog.Int("vector_candidates", len(vectorResults)),
		slog.Int("lexical_candidates", len(lexicalResults)),
		slog.Int("fused", len(results)))

	return results, nil
}

// GetChunk fetches the full stored chunk for a result identifier.
// A missing identifier returns (nil, nil).
func (s *HybridSearcher) GetChunk(ctx context.Context, chunkID string) (*store.Chunk, error) {
	if strings.TrimSpace(chunkID) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "chunk_id must not be empty", nil)
	}
	return s.vector.Get(ctx, chunkID)
}
