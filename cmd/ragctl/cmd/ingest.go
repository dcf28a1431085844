package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/embed"
	"github.com/searchfold/mcp-hybrid-search/internal/ingest"
	"github.com/searchfold/mcp-hybrid-search/internal/logging"
	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
	"github.com/searchfold/mcp-hybrid-search/internal/watch"
)

// ingestOptions holds the CLI flags for ingest.
type ingestOptions struct {
	sources      []string
	qdrantURL    string
	indexDir     string
	chunkSize    int
	chunkOverlap int
	watchMode    bool
}

// newIngestCmd creates the ingest command.
func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest [flags]",
		Short: "Index documents into the hybrid search index",
		Long: `Walk the source directories, chunk every supported document, and
index the chunks into Qdrant (vectors) and the local BM25 index.

Re-runs are incremental: files whose modification time has not
changed are skipped. With --watch the command keeps running and
re-ingests whenever the source tree changes.

Examples:
  ragctl ingest
  ragctl ingest --source ./docs --source ./notes
  ragctl ingest --project myproject --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.sources, "source", nil,
		"Source directory to ingest (repeatable; default ~/.local/share/mcp-hybrid-search)")
	cmd.Flags().StringVar(&opts.qdrantURL, "qdrant", "", "Override the Qdrant URL")
	cmd.Flags().StringVar(&opts.indexDir, "index-dir", "", "Override the lexical index directory")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "Override the chunk size in characters")
	cmd.Flags().IntVar(&opts.chunkOverlap, "chunk-overlap", -1, "Override the chunk overlap in characters")
	cmd.Flags().BoolVar(&opts.watchMode, "watch", false, "Keep running and re-ingest on changes")

	return cmd
}

func runIngest(cmd *cobra.Command, opts ingestOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.qdrantURL != "" {
		cfg.QdrantURL = opts.qdrantURL
	}
	if opts.indexDir != "" {
		cfg.TantivyIndexDir = opts.indexDir
	}
	if opts.chunkSize > 0 {
		cfg.ChunkSize = opts.chunkSize
	}
	if opts.chunkOverlap >= 0 {
		cfg.ChunkOverlap = opts.chunkOverlap
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sources := opts.sources
	if len(sources) == 0 {
		sources = []string{config.DefaultSourceDir()}
	}

	vector, err := store.NewQdrantStore(cfg.QdrantURL, cfg.CollectionName, cfg.EmbeddingDimension)
	if err != nil {
		return err
	}
	defer func() { _ = vector.Close() }()

	lexical, err := store.NewLexicalIndex(cfg.TantivyIndexDir, cfg.Tokenizer)
	if err != nil {
		return err
	}
	defer func() { _ = lexical.Close() }()

	embedder, err := embed.NewEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	// Ingest gets its own log file so a long pipeline run does not
	// interleave with the server log.
	logCfg := logging.DefaultConfig()
	logCfg.FilePath = logging.IngestLogPath()
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	controller := ingest.NewController(cfg, vector, lexical, embedder, nil, logger)

	runOnce := func(ctx context.Context) {
		stats, err := controller.Run(ctx, sources)
		if err != nil {
			out.Error("ingest failed: %v", err)
			return
		}
		out.Success("ingested %d files, %d chunks (%d skipped, %d errors)",
			stats.FilesProcessed, stats.ChunksIndexed, stats.FilesSkipped, stats.Errors)
	}

	ctx := cmd.Context()
	stats, err := controller.Run(ctx, sources)
	if err != nil {
		return err
	}
	out.Success("ingested %d files, %d chunks (%d skipped, %d errors)",
		stats.FilesProcessed, stats.ChunksIndexed, stats.FilesSkipped, stats.Errors)

	if !opts.watchMode {
		return nil
	}

	out.Info("Watching %d source directories, press Ctrl-C to stop.", len(sources))
	w, err := watch.New(sources, 0, runOnce, logger)
	if err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
