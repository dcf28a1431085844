package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// newImportCmd creates the import command.
func newImportCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import chunks and embeddings from an export file",
		Long: `Load a ragctl export file into the current project's indexes.
Embeddings travel with the chunks, so no embedding provider is
needed. The export's embedding dimension must match the
configured collection.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			file, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("cannot open import file: %w", err)
			}
			defer func() { _ = file.Close() }()

			var exported []*store.ExportedChunk
			if err := json.NewDecoder(file).Decode(&exported); err != nil {
				return fmt.Errorf("cannot parse import file: %w", err)
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

			if err := vector.EnsureCollection(cmd.Context()); err != nil {
				return err
			}

			chunks := make([]*store.Chunk, len(exported))
			vectors := make([][]float32, len(exported))
			for i, e := range exported {
				chunk := e.Payload
				chunks[i] = &chunk
				vectors[i] = e.Embedding
			}

			if err := vector.Upsert(cmd.Context(), chunks, vectors); err != nil {
				return err
			}
			if err := lexical.IndexChunks(cmd.Context(), chunks); err != nil {
				return err
			}

			out.Success("imported %d chunks from %s", len(chunks), inputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "export.json", "Import file path")
	return cmd
}
