package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// newListProjectsCmd creates the list-projects command.
func newListProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-projects",
		Short: "List Qdrant collections and the projects they belong to",
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

			collections, err := vector.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			if len(collections) == 0 {
				out.Info("No collections found.")
				return nil
			}

			base := strings.TrimSuffix(cfg.CollectionName, "_"+project)
			for _, name := range collections {
				switch {
				case name == base:
					out.Info("%s (default)", name)
				case strings.HasPrefix(name, base+"_"):
					out.Info("%s (project %s)", name, strings.TrimPrefix(name, base+"_"))
				default:
					out.Info("%s", name)
				}
			}
			return nil
		},
	}
}
