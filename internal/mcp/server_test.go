package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchfold/mcp-hybrid-search/internal/config"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

type fakeSearcher struct {
	results []*store.SearchResult
	chunks  map[string]*store.Chunk
	err     error

	gotQuery   string
	gotTopK    int
	gotFilters *store.SearchFilters
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int, filters *store.SearchFilters) ([]*store.SearchResult, error) {
	f.gotQuery = query
	f.gotTopK = topK
	f.gotFilters = filters
	return f.results, f.err
}

func (f *fakeSearcher) GetChunk(_ context.Context, chunkID string) (*store.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks[chunkID], nil
}

type fakeVectorInfo struct {
	collection string
	count      uint64
	err        error
}

func (f *fakeVectorInfo) Collection() string { return f.collection }

func (f *fakeVectorInfo) CollectionInfo(_ context.Context) (uint64, error) {
	return f.count, f.err
}

type fakeLexicalInfo struct {
	count uint64
}

func (f *fakeLexicalInfo) Count() (uint64, error) { return f.count, nil }

func newTestServer(searcher *fakeSearcher) *Server {
	return NewServer(searcher,
		&fakeVectorInfo{collection: "docs", count: 42},
		&fakeLexicalInfo{count: 42},
		config.NewConfig(), nil)
}

func handle(t *testing.T, s *Server, msg string) *Response {
	t.Helper()
	return s.HandleMessage(context.Background(), []byte(msg))
}

func toolResult(t *testing.T, resp *Response) *ToolResult {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(*ToolResult)
	require.True(t, ok, "result is %T", resp.Result)
	return result
}

func TestHandleMessage(t *testing.T) {
	t.Run("initialize", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

		require.NotNil(t, resp)
		require.Nil(t, resp.Error)
		result := resp.Result.(map[string]any)
		assert.Equal(t, ProtocolVersion, result["protocolVersion"])
		serverInfo := result["serverInfo"].(map[string]any)
		assert.Equal(t, ServerName, serverInfo["name"])
		tools := result["capabilities"].(map[string]any)["tools"].(map[string]any)
		assert.Equal(t, false, tools["listChanged"])
	})

	t.Run("initialized notification produces no response", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
		assert.Nil(t, resp)
	})

	t.Run("unknown method", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"resources/list"}`)

		require.NotNil(t, resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	})

	t.Run("parse error", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{not json`)

		require.NotNil(t, resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeParseError, resp.Error.Code)
	})

	t.Run("tools/list returns all three tools", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`)

		require.NotNil(t, resp)
		require.Nil(t, resp.Error)
		tools := resp.Result.(map[string]any)["tools"].([]Tool)
		names := make([]string, len(tools))
		for i, tool := range tools {
			names[i] = tool.Name
		}
		assert.ElementsMatch(t, []string{"search", "get", "get_project_info"}, names)
	})

	t.Run("id is echoed verbatim", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":"abc-123","method":"ping"}`)

		require.NotNil(t, resp)
		assert.Equal(t, "abc-123", resp.ID)
	})
}

func TestToolCall(t *testing.T) {
	t.Run("missing params", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`)

		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("unknown tool", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete_everything","arguments":{}}}`)

		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	})

	t.Run("search returns ranked results", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{results: []*store.SearchResult{
			{ChunkID: "id-1", Score: 0.032, Title: "Install Guide", Snippet: "Run the installer"},
		}})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"install"}}}`)

		result := toolResult(t, resp)
		assert.False(t, result.IsError)
		require.Len(t, result.Content, 1)
		assert.Equal(t, "text", result.Content[0].Type)
		assert.Contains(t, result.Content[0].Text, "Install Guide")
	})

	t.Run("search result text is a results envelope", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{results: []*store.SearchResult{
			{ChunkID: "id-1", Score: 0.032, Title: "Install Guide"},
			{ChunkID: "id-2", Score: 0.016, Title: "API Reference"},
		}})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"install","top_k":2}}}`)

		result := toolResult(t, resp)
		var out searchOutput
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &out))
		require.Len(t, out.Results, 2)
		assert.Equal(t, "id-1", out.Results[0].ChunkID)
	})

	t.Run("no hits still yields an empty results array", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"nothing matches"}}}`)

		result := toolResult(t, resp)
		var out searchOutput
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &out))
		assert.NotNil(t, out.Results)
		assert.Empty(t, out.Results)
	})

	t.Run("filters object reaches the searcher", func(t *testing.T) {
		f := &fakeSearcher{}
		s := newTestServer(f)
		handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"q","filters":{"source_type":"md","path_prefix":"/docs"}}}}`)

		require.NotNil(t, f.gotFilters)
		assert.Equal(t, "md", f.gotFilters.SourceType)
		assert.Equal(t, "/docs", f.gotFilters.PathPrefix)
	})

	t.Run("empty filters object means unfiltered", func(t *testing.T) {
		f := &fakeSearcher{}
		s := newTestServer(f)
		handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"q","filters":{}}}}`)

		assert.Nil(t, f.gotFilters)
		assert.Equal(t, 10, f.gotTopK)
	})

	t.Run("search without query", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{}}}`)

		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("search failure travels in the result envelope", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{err: errors.New(errors.ErrCodeSearchFailed, "both retrieval engines failed", nil)})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"q"}}}`)

		result := toolResult(t, resp)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "Error: ")
	})

	t.Run("get returns the chunk detail", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{chunks: map[string]*store.Chunk{
			"id-1": {ChunkID: "id-1", Title: "Install Guide", Text: "full chunk text"},
		}})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get","arguments":{"chunk_id":"id-1"}}}`)

		result := toolResult(t, resp)
		assert.False(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "full chunk text")
	})

	t.Run("get with missing chunk is a tool error", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{chunks: map[string]*store.Chunk{}})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get","arguments":{"chunk_id":"missing"}}}`)

		result := toolResult(t, resp)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "missing")
	})

	t.Run("get without chunk_id", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get","arguments":{}}}`)

		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("get_project_info reports counts and config", func(t *testing.T) {
		s := newTestServer(&fakeSearcher{})
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_project_info","arguments":{}}}`)

		result := toolResult(t, resp)
		assert.False(t, result.IsError)

		var info projectInfo
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &info))
		assert.Equal(t, "docs", info.Collection)
		assert.Equal(t, uint64(42), info.VectorChunks)
		assert.Equal(t, uint64(42), info.LexicalChunks)
		assert.NotEmpty(t, info.EmbeddingProvider)
	})

	t.Run("count failure degrades to zero", func(t *testing.T) {
		s := NewServer(&fakeSearcher{},
			&fakeVectorInfo{collection: "docs", err: errors.New(errors.ErrCodeVectorStore, "down", nil)},
			&fakeLexicalInfo{count: 7},
			config.NewConfig(), nil)
		resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_project_info","arguments":{}}}`)

		result := toolResult(t, resp)
		var info projectInfo
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &info))
		assert.Equal(t, uint64(0), info.VectorChunks)
		assert.Equal(t, uint64(7), info.LexicalChunks)
	})
}
