package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/configs"
	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/output"
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write the annotated default configuration to
~/.mcp-hybrid-search/config.toml. Existing files are preserved
unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			target := filepath.Join(config.DefaultConfigDir(), "config.toml")
			if _, err := os.Stat(target); err == nil && !force {
				out.Warning("config already exists at %s (use --force to overwrite)", target)
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("cannot create config directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("cannot write config file: %w", err)
			}

			out.Success("wrote %s", target)
			out.Info("Edit it, export your embedding API key, then run: ragctl ingest")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
