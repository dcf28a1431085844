package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every chunk and its embedding to a JSON file",
		Long: `Export the full vector collection, payloads and embeddings both,
to a JSON file. The file can be imported on another machine with
ragctl import, skipping re-embedding entirely.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			vector, err := store.NewQdrantStore(cfg.QdrantURL, cfg.CollectionName, cfg.EmbeddingDimension)
			if err != nil {
				return err
			}
			defer func() { _ = vector.Close() }()

			chunks, err := vector.ExportAll(cmd.Context())
			if err != nil {
				return err
			}

			file, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("cannot create export file: %w", err)
			}
			defer func() { _ = file.Close() }()

			enc := json.NewEncoder(file)
			if err := enc.Encode(chunks); err != nil {
				return fmt.Errorf("cannot write export file: %w", err)
			}

			out.Success("exported %d chunks to %s", len(chunks), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "export.json", "Export file path")
	return cmd
}
