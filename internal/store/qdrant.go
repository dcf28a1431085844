package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/searchfold/mcp-hybrid-search/internal/chunker"
	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// upsertBatchSize is the number of points sent per upsert request.
const upsertBatchSize = 100

// scrollPageSize is the page size used when exporting the collection.
const scrollPageSize = 100

// QdrantStore is the vector store client. Points carry the full chunk
// record as payload, so the store can reconstruct chunks without
// consulting the lexical index.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantStore connects to the Qdrant gRPC endpoint given as a URL
// (e.g. http://localhost:6334).
func NewQdrantStore(qdrantURL, collection string, dimension int) (*QdrantStore, error) {
	host, port, useTLS, err := parseQdrantURL(qdrantURL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, errors.New(errors.ErrCodeVectorStore,
			fmt.Sprintf("failed to connect to Qdrant at %s", qdrantURL), err)
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}, nil
}

func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, errors.ConfigError(fmt.Sprintf("invalid qdrant_url %q", raw), err)
	}

	host = u.Hostname()
	if host == "" {
		return "", 0, false, errors.ConfigError(fmt.Sprintf("qdrant_url %q has no host", raw), nil)
	}

	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, errors.ConfigError(fmt.Sprintf("qdrant_url %q has invalid port", raw), err)
		}
	}

	return host, port, u.Scheme == "https", nil
}

// Collection returns the collection name this store operates on.
func (q *QdrantStore) Collection() string {
	return q.collection
}

// EnsureCollection creates the collection if absent: cosine distance,
// the configured dimensionality, and scalar (int8) quantization.
// Idempotent.
func (q *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return errors.New(errors.ErrCodeVectorStore, "failed to check collection existence", err)
	}
	if exists {
		slog.Debug("collection_exists", slog.String("collection", q.collection))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
		QuantizationConfig: qdrant.NewQuantizationScalar(&qdrant.ScalarQuantization{
			Type: qdrant.QuantizationType_Int8,
		}),
	})
	if err != nil {
		return errors.New(errors.ErrCodeVectorStore,
			fmt.Sprintf("failed to create collection %s", q.collection), err)
	}

	slog.Info("collection_created",
		slog.String("collection", q.collection),
		slog.Int("dimension", q.dimension))
	return nil
}

// Upsert writes chunks zipped with their vectors, in batches of 100.
// Point ids are the parsed chunk UUIDs; a chunk id that fails to parse
// gets a fresh UUID, which tolerates the bad id but breaks later
// lookup by chunk_id.
func (q *QdrantStore) Upsert(ctx context.Context, chunks []*Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.InternalError(
			fmt.Sprintf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors)), nil)
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		id, err := uuid.Parse(chunk.ChunkID)
		if err != nil {
			id = uuid.New()
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(id.String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":    chunk.ChunkID,
				"source_path": chunk.SourcePath,
				"source_type": chunk.SourceType,
				"title":       chunk.Title,
				"chunk_index": int64(chunk.ChunkIndex),
				"text":        chunk.Text,
				"updated_at":  chunk.UpdatedAt,
			}),
		})
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}

		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points[start:end],
		})
		if err != nil {
			return errors.New(errors.ErrCodeVectorStore, "failed to upsert points", err)
		}
	}

	return nil
}

// Search runs a vector similarity query. The source_type filter is
// pushed down to the server; path_prefix is not supported server-side
// and is left to the fusion layer's lexical counterpart.
func (q *QdrantStore) Search(ctx context.Context, vector []float32, topK int, filters *SearchFilters) ([]*SearchResult, error) {
	query := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if filters != nil && filters.SourceType != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source_type", filters.SourceType),
			},
		}
	}

	points, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, errors.New(errors.ErrCodeVectorStore, "vector search failed", err)
	}

	results := make([]*SearchResult, 0, len(points))
	for _, point := range points {
		text := payloadString(point.Payload, "text")
		results = append(results, &SearchResult{
			ChunkID:    payloadString(point.Payload, "chunk_id"),
			Score:      float64(point.Score),
			Title:      payloadString(point.Payload, "title"),
			SourcePath: payloadString(point.Payload, "source_path"),
			SourceType: payloadString(point.Payload, "source_type"),
			Snippet:    chunker.TruncateSnippet(text),
		})
	}

	return results, nil
}

// Get looks up a chunk by id, reconstructing it from the point
// payload. Returns nil when the point does not exist.
func (q *QdrantStore) Get(ctx context.Context, chunkID string) (*Chunk, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(chunkID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errors.New(errors.ErrCodeVectorStore, "point lookup failed", err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	return chunkFromPayload(points[0].Payload), nil
}

// ExportAll scrolls the whole collection in pages of 100 with payload
// and vectors enabled, reconstructing each chunk from its payload.
func (q *QdrantStore) ExportAll(ctx context.Context) ([]*ExportedChunk, error) {
	var exported []*ExportedChunk
	var offset *qdrant.PointId

	for {
		resp, err := q.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, errors.New(errors.ErrCodeVectorStore, "collection scroll failed", err)
		}

		points := resp.GetResult()
		if len(points) == 0 {
			break
		}

		for _, point := range points {
			var embedding []float32
			if vec := point.GetVectors().GetVector(); vec != nil {
				embedding = vec.GetData()
			}
			exported = append(exported, &ExportedChunk{
				Payload:   *chunkFromPayload(point.Payload),
				Embedding: embedding,
			})
		}

		slog.Debug("export_progress", slog.Int("chunks", len(exported)))

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return exported, nil
}

// DeleteCollection removes the entire collection.
func (q *QdrantStore) DeleteCollection(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return errors.New(errors.ErrCodeVectorStore,
			fmt.Sprintf("failed to delete collection %s", q.collection), err)
	}
	return nil
}

// CollectionInfo returns the collection's point count.
func (q *QdrantStore) CollectionInfo(ctx context.Context) (uint64, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, errors.New(errors.ErrCodeVectorStore,
			fmt.Sprintf("failed to get collection info for %s", q.collection), err)
	}
	return info.GetPointsCount(), nil
}

// ListCollections enumerates all collection names on the server.
func (q *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := q.client.ListCollections(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrCodeVectorStore, "failed to list collections", err)
	}
	return names, nil
}

// Close releases the underlying gRPC connection.
func (q *QdrantStore) Close() error {
	return q.client.Close()
}

// chunkFromPayload rebuilds a chunk from a point payload.
func chunkFromPayload(payload map[string]*qdrant.Value) *Chunk {
	return &Chunk{
		ChunkID:    payloadString(payload, "chunk_id"),
		SourcePath: payloadString(payload, "source_path"),
		SourceType: payloadString(payload, "source_type"),
		Title:      payloadString(payload, "title"),
		ChunkIndex: payloadUint32(payload, "chunk_index"),
		Text:       payloadString(payload, "text"),
		UpdatedAt:  payloadString(payload, "updated_at"),
	}
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return strconv.FormatInt(kind.IntegerValue, 10)
	case *qdrant.Value_DoubleValue:
		return strconv.FormatFloat(kind.DoubleValue, 'f', -1, 64)
	default:
		return ""
	}
}

func payloadUint32(payload map[string]*qdrant.Value, key string) uint32 {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	if kind, ok := v.GetKind().(*qdrant.Value_IntegerValue); ok {
		return uint32(kind.IntegerValue)
	}
	n, _ := strconv.ParseUint(payloadString(payload, key), 10, 32)
	return uint32(n)
}
