package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
	"github.com/searchfold/mcp-hybrid-search/pkg/version"
)

// Searcher is the retrieval surface the tools need.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filters *store.SearchFilters) ([]*store.SearchResult, error)
	GetChunk(ctx context.Context, chunkID string) (*store.Chunk, error)
}

// VectorInfo reports collection-level statistics.
type VectorInfo interface {
	Collection() string
	CollectionInfo(ctx context.Context) (uint64, error)
}

// LexicalInfo reports lexical index statistics.
type LexicalInfo interface {
	Count() (uint64, error)
}

// Server dispatches JSON-RPC messages to the tool executors. It is
// transport-agnostic: the SSE handler and the tests feed it raw
// message bytes.
type Server struct {
	searcher Searcher
	vector   VectorInfo
	lexical  LexicalInfo
	cfg      *config.Config
	logger   *slog.Logger
}

// NewServer builds the dispatch server.
func NewServer(searcher Searcher, vector VectorInfo, lexical LexicalInfo, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		searcher: searcher,
		vector:   vector,
		lexical:  lexical,
		cfg:      cfg,
		logger:   logger,
	}
}

// HandleMessage processes one raw JSON-RPC message and returns the
// response, or nil when the message is a notification.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(nil, CodeParseError, "Parse error")
	}

	s.logger.Debug("rpc_request",
		slog.String("method", req.Method),
		slog.Any("id", req.ID))

	var resp *Response
	switch req.Method {
	case "initialize":
		resp = NewSuccessResponse(req.ID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{
				"name":    ServerName,
				"version": version.Version,
			},
		})
	case "initialized", "notifications/initialized":
		resp = NewSuccessResponse(req.ID, map[string]any{})
	case "ping":
		resp = NewSuccessResponse(req.ID, map[string]any{})
	case "tools/list":
		resp = NewSuccessResponse(req.ID, map[string]any{"tools": listTools()})
	case "tools/call":
		resp = s.handleToolCall(ctx, &req)
	default:
		resp = NewErrorResponse(req.ID, CodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

// toolCallParams are the params of a tools/call request.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolCall(ctx context.Context, req *Request) *Response {
	if len(req.Params) == 0 {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Missing params")
	}

	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "Invalid params")
	}

	var (
		result *ToolResult
		errRes *Response
	)
	switch params.Name {
	case "search":
		result, errRes = s.executeSearch(ctx, req.ID, params.Arguments)
	case "get":
		result, errRes = s.executeGet(ctx, req.ID, params.Arguments)
	case "get_project_info":
		result = s.executeProjectInfo(ctx)
	default:
		return NewErrorResponse(req.ID, CodeMethodNotFound,
			fmt.Sprintf("Unknown tool: %s", params.Name))
	}
	if errRes != nil {
		return errRes
	}
	return NewSuccessResponse(req.ID, result)
}

func (s *Server) executeSearch(ctx context.Context, id any, args json.RawMessage) (*ToolResult, *Response) {
	var in SearchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, NewErrorResponse(id, CodeInvalidParams, "Invalid search arguments")
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, NewErrorResponse(id, CodeInvalidParams, "query parameter is required")
	}
	if in.TopK <= 0 {
		in.TopK = 10
	}

	results, err := s.searcher.Search(ctx, in.Query, in.TopK, in.storeFilters())
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	if results == nil {
		results = []*store.SearchResult{}
	}

	text, err := json.MarshalIndent(searchOutput{Results: results}, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	return TextResult(string(text)), nil
}

func (s *Server) executeGet(ctx context.Context, id any, args json.RawMessage) (*ToolResult, *Response) {
	var in GetArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, NewErrorResponse(id, CodeInvalidParams, "Invalid get arguments")
	}
	if strings.TrimSpace(in.ChunkID) == "" {
		return nil, NewErrorResponse(id, CodeInvalidParams, "chunk_id parameter is required")
	}

	chunk, err := s.searcher.GetChunk(ctx, in.ChunkID)
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	if chunk == nil {
		return ErrorResult(fmt.Sprintf("Error: no chunk found with id %s", in.ChunkID)), nil
	}

	text, err := json.MarshalIndent(chunk.Detail(), "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error: %v", err)), nil
	}
	return TextResult(string(text)), nil
}

// projectInfo is the get_project_info payload.
type projectInfo struct {
	ServerVersion      string `json:"server_version"`
	Collection         string `json:"collection"`
	VectorChunks       uint64 `json:"vector_chunks"`
	LexicalChunks      uint64 `json:"lexical_chunks"`
	EmbeddingProvider  string `json:"embedding_provider"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}

func (s *Server) executeProjectInfo(ctx context.Context) *ToolResult {
	info := projectInfo{
		ServerVersion:      version.Version,
		Collection:         s.vector.Collection(),
		EmbeddingProvider:  s.cfg.EmbeddingProvider,
		EmbeddingModel:     s.cfg.EmbeddingModel,
		EmbeddingDimension: s.cfg.EmbeddingDimension,
	}

	// Count failures degrade to zero rather than failing the tool:
	// the config half of the payload is still useful when a backend
	// is down.
	if count, err := s.vector.CollectionInfo(ctx); err == nil {
		info.VectorChunks = count
	} else {
		s.logger.Warn("vector_count_failed", slog.String("error", err.Error()))
	}
	if count, err := s.lexical.Count(); err == nil {
		info.LexicalChunks = count
	} else {
		s.logger.Warn("lexical_count_failed", slog.String("error", err.Error()))
	}

	text, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("Error: %v", err))
	}
	return TextResult(string(text))
}
