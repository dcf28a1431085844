package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/searchfold/mcp-hybrid-search/internal/store"
	"github.com/searchfold/mcp-hybrid-search/pkg/version"
)

// RunStdio serves the same tools over the MCP SDK's stdio transport,
// for clients that spawn the server as a subprocess instead of
// connecting to the SSE endpoint.
func (s *Server) RunStdio(ctx context.Context) error {
	srv := sdk.NewServer(
		&sdk.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "search",
		Description: "Hybrid search over the indexed documents. Combines semantic vector search with BM25 keyword matching and returns ranked results with titles and snippets.",
	}, s.stdioSearchHandler)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "get",
		Description: "Fetch the full text and metadata of a single chunk by its identifier, as returned by search.",
	}, s.stdioGetHandler)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "get_project_info",
		Description: "Report index statistics and embedding configuration: collection name, chunk counts, provider, model, and dimension.",
	}, s.stdioProjectInfoHandler)

	s.logger.Info("stdio_server_started", slog.Int("tools", 3))

	err := srv.Run(ctx, &sdk.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("stdio_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("stdio_server_stopped")
	return nil
}

func (s *Server) stdioSearchHandler(ctx context.Context, _ *sdk.CallToolRequest, in SearchArgs) (*sdk.CallToolResult, searchOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, searchOutput{}, fmt.Errorf("query parameter is required")
	}
	if in.TopK <= 0 {
		in.TopK = 10
	}

	results, err := s.searcher.Search(ctx, in.Query, in.TopK, in.storeFilters())
	if err != nil {
		return nil, searchOutput{}, err
	}
	if results == nil {
		results = []*store.SearchResult{}
	}
	return nil, searchOutput{Results: results}, nil
}

func (s *Server) stdioGetHandler(ctx context.Context, _ *sdk.CallToolRequest, in GetArgs) (*sdk.CallToolResult, *store.ChunkDetail, error) {
	if strings.TrimSpace(in.ChunkID) == "" {
		return nil, nil, fmt.Errorf("chunk_id parameter is required")
	}

	chunk, err := s.searcher.GetChunk(ctx, in.ChunkID)
	if err != nil {
		return nil, nil, err
	}
	if chunk == nil {
		return nil, nil, fmt.Errorf("no chunk found with id %s", in.ChunkID)
	}
	return nil, chunk.Detail(), nil
}

func (s *Server) stdioProjectInfoHandler(ctx context.Context, _ *sdk.CallToolRequest, _ struct{}) (*sdk.CallToolResult, projectInfo, error) {
	info := projectInfo{
		ServerVersion:      version.Version,
		Collection:         s.vector.Collection(),
		EmbeddingProvider:  s.cfg.EmbeddingProvider,
		EmbeddingModel:     s.cfg.EmbeddingModel,
		EmbeddingDimension: s.cfg.EmbeddingDimension,
	}
	if count, err := s.vector.CollectionInfo(ctx); err == nil {
		info.VectorChunks = count
	}
	if count, err := s.lexical.Count(); err == nil {
		info.LexicalChunks = count
	}
	return nil, info, nil
}
