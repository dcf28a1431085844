package mcp

import (
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// Tool describes one entry of the tools/list response.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentItem is one element of a tool result's content array.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the tools/call result envelope. Tool execution
// failures travel inside a success response with IsError set; only
// protocol-level problems (unknown tool, bad params) become JSON-RPC
// errors.
type ToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// TextResult wraps plain text in the tool result envelope.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentItem{{Type: "text", Text: text}}}
}

// ErrorResult wraps a tool execution failure in the envelope.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: true,
	}
}

// FilterArgs is the optional filters object of the search tool.
type FilterArgs struct {
	SourceType string `json:"source_type,omitempty"`
	PathPrefix string `json:"path_prefix,omitempty"`
}

// SearchArgs are the arguments of the search tool.
type SearchArgs struct {
	Query   string      `json:"query"`
	TopK    int         `json:"top_k,omitempty"`
	Filters *FilterArgs `json:"filters,omitempty"`
}

// storeFilters converts the wire filters to the search layer's type.
// A missing or empty filters object means no filtering.
func (a *SearchArgs) storeFilters() *store.SearchFilters {
	if a.Filters == nil || (a.Filters.SourceType == "" && a.Filters.PathPrefix == "") {
		return nil
	}
	return &store.SearchFilters{
		SourceType: a.Filters.SourceType,
		PathPrefix: a.Filters.PathPrefix,
	}
}

// searchOutput is the search tool's result payload, shared by both
// transports.
type searchOutput struct {
	Results []*store.SearchResult `json:"results"`
}

// GetArgs are the arguments of the get tool.
type GetArgs struct {
	ChunkID string `json:"chunk_id"`
}

// listTools returns the static tool registry.
func listTools() []Tool {
	return []Tool{
		{
			Name:        "search",
			Description: "Hybrid search over the indexed documents. Combines semantic vector search with BM25 keyword matching and returns ranked results with titles and snippets.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results to return (default 10)",
					},
					"filters": map[string]any{
						"type":        "object",
						"description": "Optional result filters",
						"properties": map[string]any{
							"source_type": map[string]any{
								"type":        "string",
								"description": "Restrict results to one source type, e.g. md or pdf",
							},
							"path_prefix": map[string]any{
								"type":        "string",
								"description": "Restrict results to source paths with this prefix",
							},
						},
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "get",
			Description: "Fetch the full text and metadata of a single chunk by its identifier, as returned by search.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chunk_id": map[string]any{
						"type":        "string",
						"description": "The chunk identifier",
					},
				},
				"required": []string{"chunk_id"},
			},
		},
		{
			Name:        "get_project_info",
			Description: "Report index statistics and embedding configuration: collection name, chunk counts, provider, model, and dimension.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
