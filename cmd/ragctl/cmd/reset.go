package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// newResetCmd creates the reset command.
func newResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the vector collection, lexical index, and ingest state",
		Long: `Delete everything the index holds for the current project: the
Qdrant collection, the local BM25 index directory, and the ingest
state file. The next ingest rebuilds from scratch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !force {
				fmt.Fprintf(cmd.OutOrStdout(),
					"This deletes collection %q and index dir %s. Continue? [y/N] ",
					cfg.CollectionName, cfg.TantivyIndexDir)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					out.Info("Aborted.")
					return nil
				}
			}

			vector, err := store.NewQdrantStore(cfg.QdrantURL, cfg.CollectionName, cfg.EmbeddingDimension)
			if err != nil {
				return err
			}
			defer func() { _ = vector.Close() }()

			if err := vector.DeleteCollection(cmd.Context()); err != nil {
				out.Warning("vector collection not deleted: %v", err)
			} else {
				out.Success("deleted collection %s", cfg.CollectionName)
			}

			if err := os.RemoveAll(cfg.TantivyIndexDir); err != nil {
				return fmt.Errorf("cannot remove lexical index: %w", err)
			}
			out.Success("removed %s", cfg.TantivyIndexDir)

			if err := os.Remove(cfg.StatePath()); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("cannot remove ingest state: %w", err)
			}
			out.Success("cleared ingest state")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")
	return cmd
}
