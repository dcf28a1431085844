package cmd

import (
	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out.Info("Configuration")
			out.Field("qdrant_url", "%s", cfg.QdrantURL)
			out.Field("collection", "%s", cfg.CollectionName)
			out.Field("index_dir", "%s", cfg.TantivyIndexDir)
			out.Field("embedding_provider", "%s", cfg.EmbeddingProvider)
			out.Field("embedding_model", "%s", cfg.EmbeddingModel)
			out.Field("embedding_dimension", "%d", cfg.EmbeddingDimension)
			out.Field("chunking", "%d chars, %d overlap", cfg.ChunkSize, cfg.ChunkOverlap)
			out.Newline()

			out.Info("Index")
			vector, err := store.NewQdrantStore(cfg.QdrantURL, cfg.CollectionName, cfg.EmbeddingDimension)
			if err != nil {
				return err
			}
			defer func() { _ = vector.Close() }()

			if count, err := vector.CollectionInfo(cmd.Context()); err != nil {
				out.Warning("vector store unreachable: %v", err)
			} else {
				out.Field("vector_chunks", "%d", count)
			}

			lexical, err := store.NewLexicalIndex(cfg.TantivyIndexDir, cfg.Tokenizer)
			if err != nil {
				out.Warning("lexical index unavailable: %v", err)
				return nil
			}
			defer func() { _ = lexical.Close() }()

			if count, err := lexical.Count(); err != nil {
				out.Warning("lexical count failed: %v", err)
			} else {
				out.Field("lexical_chunks", "%d", count)
			}

			state, err := store.LoadIngestState(cfg.StatePath())
			if err != nil {
				out.Warning("ingest state unreadable: %v", err)
				return nil
			}
			out.Field("tracked_files", "%d", len(state))
			return nil
		},
	}
}
