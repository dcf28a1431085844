package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	index "github.com/blevesearch/bleve_index_api"

	"github.com/searchfold/mcp-hybrid-search/internal/chunker"
)

// Lexical index field names. The five-field schema mirrors what the
// search side parses queries against (title, body) and filters on
// (source_type, source_path).
const (
	fieldChunkID    = "chunk_id"
	fieldSourcePath = "source_path"
	fieldTitle      = "title"
	fieldBody       = "body"
	fieldSourceType = "source_type"
)

// LexicalIndex wraps Bleve v2 for BM25 keyword search over chunks.
// Documents are keyed by chunk_id, so re-indexing a chunk replaces the
// prior version.
type LexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// NewLexicalIndex opens or creates the index at path. An empty path
// creates an in-memory index for testing. The tokenizer selects the
// analyzer for the title and body fields; CJK tokenizers surface a
// configuration error here when their segmenter is not compiled in.
func NewLexicalIndex(path, tokenizer string) (*LexicalIndex, error) {
	indexMapping, err := buildIndexMapping(tokenizer)
	if err != nil {
		return nil, err
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("lexical_index_corrupted",
				slog.String("path", path),
				slog.String("error", err.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("lexical index corrupted and cannot remove: %w (original error: %v)", removeErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open lexical index: %w", err)
	}

	return &LexicalIndex{index: idx, path: path}, nil
}

// buildIndexMapping creates the five-field schema with BM25 scoring.
func buildIndexMapping(tokenizer string) (*mapping.IndexMappingImpl, error) {
	analyzer, err := analyzerForTokenizer(tokenizer)
	if err != nil {
		return nil, err
	}

	keywordField := bleve.NewKeywordFieldMapping()
	keywordField.Store = true
	keywordField.IncludeInAll = false

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.Analyzer = analyzer
	textField.IncludeTermVectors = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldChunkID, keywordField)
	doc.AddFieldMappingsAt(fieldSourcePath, keywordField)
	doc.AddFieldMappingsAt(fieldTitle, textField)
	doc.AddFieldMappingsAt(fieldBody, textField)
	doc.AddFieldMappingsAt(fieldSourceType, keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	indexMapping.DefaultAnalyzer = analyzer
	indexMapping.ScoringModel = index.BM25Scoring

	return indexMapping, nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// IndexChunks indexes chunks with replace semantics keyed on chunk_id:
// any prior document with the same id is deleted before the new one is
// added, and the batch commits once at the end.
func (l *LexicalIndex) IndexChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("lexical index is closed")
	}

	batch := l.index.NewBatch()
	for _, chunk := range chunks {
		batch.Delete(chunk.ChunkID)
		doc := map[string]any{
			fieldChunkID:    chunk.ChunkID,
			fieldSourcePath: chunk.SourcePath,
			fieldTitle:      chunk.Title,
			fieldBody:       chunk.Text,
			fieldSourceType: chunk.SourceType,
		}
		if err := batch.Index(chunk.ChunkID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", chunk.ChunkID, err)
		}
	}

	if err := l.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to commit lexical batch: %w", err)
	}
	return nil
}

// Search runs a BM25 query against the title and body fields, then
// applies the source_type and path_prefix filters client-side.
// Returns at most topK results.
func (l *LexicalIndex) Search(ctx context.Context, queryStr string, topK int, filters *SearchFilters) ([]*SearchResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, fmt.Errorf("lexical index is closed")
	}

	if strings.TrimSpace(queryStr) == "" {
		return []*SearchResult{}, nil
	}

	titleQuery := bleve.NewMatchQuery(queryStr)
	titleQuery.SetField(fieldTitle)
	bodyQuery := bleve.NewMatchQuery(queryStr)
	bodyQuery.SetField(fieldBody)
	query := bleve.NewDisjunctionQuery(titleQuery, bodyQuery)

	req := bleve.NewSearchRequest(query)
	req.Size = topK
	req.Fields = []string{fieldChunkID, fieldSourcePath, fieldTitle, fieldBody, fieldSourceType}

	result, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	results := make([]*SearchResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		sourceType := fieldString(hit.Fields, fieldSourceType)
		sourcePath := fieldString(hit.Fields, fieldSourcePath)
		if !filters.Matches(sourceType, sourcePath) {
			continue
		}

		body := fieldString(hit.Fields, fieldBody)
		results = append(results, &SearchResult{
			ChunkID:    fieldString(hit.Fields, fieldChunkID),
			Score:      hit.Score,
			Title:      fieldString(hit.Fields, fieldTitle),
			SourcePath: sourcePath,
			SourceType: sourceType,
			Snippet:    chunker.TruncateSnippet(body),
		})
	}

	return results, nil
}

// Count returns the total number of indexed documents.
func (l *LexicalIndex) Count() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return 0, fmt.Errorf("lexical index is closed")
	}
	return l.index.DocCount()
}

// Close closes the underlying index.
func (l *LexicalIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.index != nil {
		return l.index.Close()
	}
	return nil
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
