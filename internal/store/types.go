// Package store contains the data model and the two index clients:
// a Qdrant vector store and a Bleve lexical (BM25) index. The two are
// kept in sync at chunk granularity by the ingest pipeline.
package store

import "strings"

// Chunk is the atomic indexed unit: a bounded text span carved from a
// source document. ChunkID is the persisted key in both stores; the
// (SourcePath, ChunkIndex) pair identifies a logical chunk but is not
// stable across re-ingests.
type Chunk struct {
	ChunkID    string `json:"chunk_id"`
	SourcePath string `json:"source_path"`
	SourceType string `json:"source_type"`
	Title      string `json:"title"`
	ChunkIndex uint32 `json:"chunk_index"`
	Text       string `json:"text"`
	UpdatedAt  string `json:"updated_at"`
}

// SearchResult is a single ranked hit from either backend, or the
// fused output of both.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title"`
	SourcePath string  `json:"source_path"`
	SourceType string  `json:"source_type"`
	Snippet    string  `json:"snippet"`
}

// ChunkMetadata is the descriptive part of a chunk, returned alongside
// its full text by the get tool.
type ChunkMetadata struct {
	Title      string `json:"title"`
	SourcePath string `json:"source_path"`
	SourceType string `json:"source_type"`
	ChunkIndex uint32 `json:"chunk_index"`
}

// ChunkDetail is the full content of a chunk plus its metadata.
type ChunkDetail struct {
	ChunkID  string        `json:"chunk_id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchFilters are optional post-conditions applied by both backends:
// SourceType matches exactly, PathPrefix is a string-prefix match on
// the source path.
type SearchFilters struct {
	SourceType string `json:"source_type,omitempty"`
	PathPrefix string `json:"path_prefix,omitempty"`
}

// ExportedChunk pairs a chunk with its stored embedding, as produced
// by a full collection scroll.
type ExportedChunk struct {
	Payload   Chunk     `json:"payload"`
	Embedding []float32 `json:"embedding"`
}

// Detail converts a chunk to its ChunkDetail form.
func (c *Chunk) Detail() *ChunkDetail {
	return &ChunkDetail{
		ChunkID: c.ChunkID,
		Text:    c.Text,
		Metadata: ChunkMetadata{
			Title:      c.Title,
			SourcePath: c.SourcePath,
			SourceType: c.SourceType,
			ChunkIndex: c.ChunkIndex,
		},
	}
}

// Matches reports whether a document passes the filters. Used by the
// lexical side, which filters client-side after BM25 retrieval.
func (f *SearchFilters) Matches(sourceType, sourcePath string) bool {
	if f == nil {
		return true
	}
	if f.SourceType != "" && sourceType != f.SourceType {
		return false
	}
	if f.PathPrefix != "" && !strings.HasPrefix(sourcePath, f.PathPrefix) {
		return false
	}
	return true
}
