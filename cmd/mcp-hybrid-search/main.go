// Package main provides the entry point for the mcp-hybrid-search
// server. It exposes the hybrid search tools over the MCP HTTP+SSE
// transport by default, or over stdio with --stdio for clients that
// spawn the server as a subprocess.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/embed"
	"github.com/searchfold/mcp-hybrid-search/internal/logging"
	"github.com/searchfold/mcp-hybrid-search/internal/mcp"
	"github.com/searchfold/mcp-hybrid-search/internal/search"
	"github.com/searchfold/mcp-hybrid-search/internal/sse"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
	"github.com/searchfold/mcp-hybrid-search/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		project    string
		stdioMode  bool
		debugMode  bool
	)

	cmd := &cobra.Command{
		Use:   "mcp-hybrid-search",
		Short: "MCP server for hybrid document search",
		Long: `mcp-hybrid-search serves the search, get, and get_project_info
tools over the Model Context Protocol. Retrieval is hybrid: dense
vectors in Qdrant fused with a local BM25 index.

Build the index first with ragctl ingest.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), configPath, project, stdioMode, debugMode)
		},
	}

	cmd.SetVersionTemplate("mcp-hybrid-search version {{.Version}}\n")

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config.toml")
	cmd.Flags().StringVar(&project, "project", "", "Project namespace (suffixes the collection and index dir)")
	cmd.Flags().BoolVar(&stdioMode, "stdio", false, "Serve over stdio instead of HTTP+SSE")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	return cmd
}

func runServer(ctx context.Context, configPath, project string, stdioMode, debugMode bool) error {
	_ = godotenv.Load()

	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg.Level = "debug"
	}
	if stdioMode {
		// stdout carries the protocol; logs must stay off it and a
		// file is the only safe destination for anything verbose.
		logCfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = cfg.WithProject(project)
	if err := cfg.Validate(); err != nil {
		return err
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

	searcher := search.NewHybridSearcher(vector, lexical, embedder, logger)
	server := mcp.NewServer(searcher, vector, lexical, cfg, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server_starting",
		slog.String("version", version.Version),
		slog.String("collection", cfg.CollectionName),
		slog.Bool("stdio", stdioMode))

	if stdioMode {
		return server.RunStdio(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.ListenPort)
	return sse.Serve(ctx, addr, sse.NewHandler(server, logger))
}
