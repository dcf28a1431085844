package cmd

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/searchfold/mcp-hybrid-search/internal/embed"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
	"github.com/searchfold/mcp-hybrid-search/internal/output"
	"github.com/searchfold/mcp-hybrid-search/internal/search"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// searchOptions holds the CLI flags for search.
type searchOptions struct {
	query      string
	topK       int
	sourceType string
	pathPrefix string
	jsonOutput bool
}

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a hybrid search from the command line",
		Long: `Run the same hybrid search the MCP server exposes: semantic
vector search and BM25 keyword search fused with Reciprocal Rank
Fusion. The query may be given positionally or with --query.

Examples:
  ragctl search "how do I configure the listener port"
  ragctl search --query "error codes" --top-k 5 --source-type md
  ragctl search "deployment" --json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(opts.query)
			if query == "" {
				query = strings.TrimSpace(strings.Join(args, " "))
			}
			if query == "" {
				return errors.New(errors.ErrCodeQueryEmpty,
					"a search query is required (positional or --query)", nil)
			}
			return runSearchCmd(cmd, query, opts)
		},
	}

	cmd.Flags().StringVar(&opts.query, "query", "", "The search query")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 10, "Maximum number of results")
	cmd.Flags().StringVar(&opts.sourceType, "source-type", "", "Restrict results to one source type (e.g. md, pdf)")
	cmd.Flags().StringVar(&opts.pathPrefix, "path-prefix", "", "Restrict results to source paths with this prefix")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearchCmd(cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
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

	searcher := search.NewHybridSearcher(vector, lexical, embedder, slog.Default())

	var filters *store.SearchFilters
	if opts.sourceType != "" || opts.pathPrefix != "" {
		filters = &store.SearchFilters{SourceType: opts.sourceType, PathPrefix: opts.pathPrefix}
	}

	results, err := searcher.Search(cmd.Context(), query, opts.topK, filters)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	output.New(cmd.OutOrStdout()).SearchResults(results)
	return nil
}
