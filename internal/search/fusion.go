// Package search combines dense vector retrieval and BM25 lexical
// retrieval into a single ranked list using Reciprocal Rank Fusion
// (RRF).
package search

import (
	"sort"

	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains (used by Azure AI
// Search, OpenSearch, etc.).
const DefaultRRFConstant = 60

// fuseRRF merges the vector and lexical ranked lists. Each list
// contributes 1/(k + rank + 1) per document, ranks counted from zero,
// so the top hit of a single list scores 1/61 with the default k.
//
// Result metadata (title, path, snippet) comes from whichever list
// yields the document first; the vector list is processed first, so
// it wins for documents present in both. The fused score replaces the
// engine-native score on every result.
func fuseRRF(vector, lexical []*store.SearchResult, k, topK int) []*store.SearchResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[string]float64, len(vector)+len(lexical))
	seen := make(map[string]bool, len(vector)+len(lexical))
	fused := make([]*store.SearchResult, 0, len(vector)+len(lexical))

	for _, list := range [][]*store.SearchResult{vector, lexical} {
		for rank, r := range list {
			scores[r.ChunkID] += 1.0 / float64(k+rank+1)
			if !seen[r.ChunkID] {
				seen[r.ChunkID] = true
				fused = append(fused, r)
			}
		}
	}

	for _, r := range fused {
		r.Score = scores[r.ChunkID]
	}

	// Descending by fused score. The comparison is false for NaN on
	// either side, which leaves NaN scores wherever the sort finds
	// them instead of panicking or cycling.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}
