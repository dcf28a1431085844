// Package cmd provides the CLI commands for ragctl, the ingest and
// index management tool of mcp-hybrid-search.
package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/logging"
	"github.com/searchfold/mcp-hybrid-search/pkg/version"
)

var (
	configPath string
	project    string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the ragctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Manage the hybrid search document index",
		Long: `ragctl ingests documents into the hybrid search index and
manages the index lifecycle: status, reset, export, and import.

The index has two halves: a Qdrant vector collection for semantic
search and a local BM25 index for keyword search. The companion
mcp-hybrid-search server exposes both to MCP clients.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ragctl version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml")
	cmd.PersistentFlags().StringVar(&project, "project", "", "Project namespace (suffixes the collection and index dir)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupEnvironment
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newListProjectsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupEnvironment loads .env and configures logging before any
// subcommand runs.
func setupEnvironment(_ *cobra.Command, _ []string) error {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the effective configuration for the current
// invocation, applying the --project namespace.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithProject(project)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err.Error())
		return err
	}
	return nil
}
