package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/searchfold/mcp-hybrid-search/internal/chunker"
	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/embed"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// fileBatchSize is how many files are chunked and indexed per batch.
const fileBatchSize = 10

// embedBatchSize is how many chunk texts go into one embedding
// request. Embedding failures are isolated to their sub-batch.
const embedBatchSize = 20

// Stats summarizes one ingest run.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	ChunksIndexed  int
	Errors         int
}

// VectorStore is the write surface of the dense index.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []*store.Chunk, vectors [][]float32) error
}

// LexicalIndexer is the write surface of the BM25 index.
type LexicalIndexer interface {
	IndexChunks(ctx context.Context, chunks []*store.Chunk) error
}

// Controller drives the ingest pipeline: discover, convert, chunk,
// embed, and index. A file lock serializes ingest runs per index
// directory; concurrent runs fail fast rather than corrupting state.
type Controller struct {
	cfg       *config.Config
	vector    VectorStore
	lexical   LexicalIndexer
	embedder  embed.Embedder
	converter *Converter
	logger    *slog.Logger
}

// NewController wires the ingest pipeline.
func NewController(cfg *config.Config, vector VectorStore, lexical LexicalIndexer, embedder embed.Embedder, converter *Converter, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if converter == nil {
		converter = NewConverter()
	}
	return &Controller{
		cfg:       cfg,
		vector:    vector,
		lexical:   lexical,
		embedder:  embedder,
		converter: converter,
		logger:    logger,
	}
}

// Run ingests every supported document under the source directories.
// Unchanged files (same modification time as the recorded state) are
// skipped. The returned stats count files, chunks, and non-fatal
// errors; individual file failures never abort the run.
func (c *Controller) Run(ctx context.Context, sourceDirs []string) (*Stats, error) {
	lockPath := c.cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, errors.IOError(fmt.Sprintf("cannot create index directory for %s", lockPath), err)
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.IOError("cannot acquire ingest lock", err)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeIngestLocked,
			"another ingest is already running for this index", nil).
			WithDetail("lock_path", lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	if err := c.vector.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	if !c.converter.Available() {
		c.logger.Warn("converter_unavailable",
			slog.String("command", converterCommand),
			slog.String("effect", "only .md and .txt files will be ingested"))
	}

	state, err := store.LoadIngestState(c.cfg.StatePath())
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	files, err := c.discover(sourceDirs, state, stats)
	if err != nil {
		return nil, err
	}

	c.logger.Info("ingest_started",
		slog.Int("files", len(files)),
		slog.Int("skipped", stats.FilesSkipped))

	for start := 0; start < len(files); start += fileBatchSize {
		end := min(start+fileBatchSize, len(files))
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		c.processBatch(ctx, files[start:end], state, stats)
	}

	if err := state.Save(c.cfg.StatePath()); err != nil {
		return stats, err
	}

	c.logger.Info("ingest_complete",
		slog.Int("files_processed", stats.FilesProcessed),
		slog.Int("chunks_indexed", stats.ChunksIndexed),
		slog.Int("errors", stats.Errors))

	return stats, nil
}

// sourceFile is one discovered document with its modification time.
type sourceFile struct {
	path  string
	mtime string
}

// discover walks the source directories, following symlinks, and
// returns supported files whose modification time differs from the
// recorded state. Symlink cycles are broken by tracking resolved
// directories.
func (c *Controller) discover(sourceDirs []string, state store.IngestState, stats *Stats) ([]sourceFile, error) {
	var files []sourceFile
	visited := make(map[string]bool)

	var walk func(dir string) error
	walk = func(dir string) error {
		resolved, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return err
		}
		if visited[resolved] {
			return nil
		}
		visited[resolved] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			info, err := os.Stat(full) // follows symlinks
			if err != nil {
				c.logger.Warn("ingest_stat_failed",
					slog.String("path", full),
					slog.String("error", err.Error()))
				stats.Errors++
				continue
			}
			if info.IsDir() {
				if err := walk(full); err != nil {
					c.logger.Warn("ingest_walk_failed",
						slog.String("path", full),
						slog.String("error", err.Error()))
					stats.Errors++
				}
				continue
			}
			if !c.converter.Supports(full) {
				continue
			}
			mtime := info.ModTime().UTC().Format(time.RFC3339)
			if state.Unchanged(full, mtime) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, sourceFile{path: full, mtime: mtime})
		}
		return nil
	}

	for _, dir := range sourceDirs {
		if _, err := os.Stat(dir); err != nil {
			// A missing source only costs its own files; the other
			// directories still get ingested.
			c.logger.Warn("ingest_source_missing",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			stats.Errors++
			continue
		}
		if err := walk(dir); err != nil {
			return nil, errors.IOError(fmt.Sprintf("cannot walk source directory %s", dir), err)
		}
	}
	return files, nil
}

// processBatch chunks a batch of files, embeds the chunk texts in
// sub-batches, and writes to both indexes. A failed embedding
// sub-batch drops only its own chunks from the vector index; the
// lexical index still receives every chunk.
func (c *Controller) processBatch(ctx context.Context, batch []sourceFile, state store.IngestState, stats *Stats) {
	var chunks []*store.Chunk
	chunkedFiles := make([]sourceFile, 0, len(batch))

	for _, file := range batch {
		fileChunks, err := c.chunkFile(ctx, file)
		if err != nil {
			c.logger.Warn("ingest_file_failed",
				slog.String("path", file.path),
				slog.String("error", err.Error()))
			stats.Errors++
			continue
		}
		chunks = append(chunks, fileChunks...)
		chunkedFiles = append(chunkedFiles, file)
	}
	if len(chunks) == 0 {
		return
	}

	embedded, vectors := c.embedChunks(ctx, chunks, stats)

	if len(embedded) > 0 {
		if err := c.vector.Upsert(ctx, embedded, vectors); err != nil {
			c.logger.Error("vector_upsert_failed",
				slog.Int("chunks", len(embedded)),
				slog.String("error", err.Error()))
			stats.Errors++
		}
	}

	if err := c.lexical.IndexChunks(ctx, chunks); err != nil {
		c.logger.Error("lexical_index_failed",
			slog.Int("chunks", len(chunks)),
			slog.String("error", err.Error()))
		stats.Errors++
	}

	// Chunking succeeded for these files; record them even when an
	// index write failed so the next run does not re-read them.
	for _, file := range chunkedFiles {
		state.Record(file.path, file.mtime)
	}
	stats.FilesProcessed += len(chunkedFiles)
	stats.ChunksIndexed += len(chunks)
}

// chunkFile converts one file to text and splits it into chunks, each
// with a fresh identifier and the shared ingest timestamp.
func (c *Controller) chunkFile(ctx context.Context, file sourceFile) ([]*store.Chunk, error) {
	text, err := c.converter.Read(ctx, file.path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeEmptyContent,
			fmt.Sprintf("file has no indexable content: %s", file.path), nil)
	}

	title := chunker.ExtractTitle(text, filepath.Base(file.path))
	pieces := chunker.Chunk(text, c.cfg.ChunkSize, c.cfg.ChunkOverlap)
	now := time.Now().UTC().Format(time.RFC3339)
	sourceType := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.path)), ".")

	chunks := make([]*store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &store.Chunk{
			ChunkID:    uuid.NewString(),
			SourcePath: file.path,
			SourceType: sourceType,
			Title:      title,
			ChunkIndex: uint32(i),
			Text:       piece,
			UpdatedAt:  now,
		}
	}
	return chunks, nil
}

// embedChunks embeds chunk texts in sub-batches. Sub-batches that fail
// are logged and dropped; the survivors are returned with their
// vectors in matching order.
func (c *Controller) embedChunks(ctx context.Context, chunks []*store.Chunk, stats *Stats) ([]*store.Chunk, [][]float32) {
	embedded := make([]*store.Chunk, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		sub := chunks[start:end]

		texts := make([]string, len(sub))
		for i, chunk := range sub {
			texts[i] = chunk.Text
		}

		subVectors, err := c.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			c.logger.Warn("embed_batch_failed",
				slog.Int("chunks", len(sub)),
				slog.String("error", err.Error()))
			stats.Errors++
			continue
		}

		embedded = append(embedded, sub...)
		vectors = append(vectors, subVectors...)
	}
	return embedded, vectors
}
