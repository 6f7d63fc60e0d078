package database

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tieubaoca/lawchat-be/config"
	"github.com/tieubaoca/lawchat-be/types"
	"github.com/tieubaoca/lawchat-be/utils"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

// chunkNamespace seeds the deterministic ids for indexed chunks.
var chunkNamespace = uuid.MustParse("7b1de5a2-9c44-4a8e-8b25-6d1f0c3a9e41")

type WeaviateStore struct {
	client    *weaviate.Client
	className string
	dimension int
}

func NewWeaviateStore(config config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(config.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(config.Host, scheme+"://")
	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{
			Value: config.APIKey,
		}
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}
	return &WeaviateStore{
		client:    client,
		className: config.ClassName,
	}, nil
}

func (s *WeaviateStore) classObject() *models.Class {
	return &models.Class{
		Class: s.className,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "section", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "totalPages", DataType: []string{"int"}},
		},
		// Vectors are supplied at upsert time, no server-side vectorizer.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
}

// EnsureCollection creates the class if absent and checks that the
// embedding dimension matches an already-created class.
func (s *WeaviateStore) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension: %d", dimension)
	}
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}
	for _, class := range schema.Classes {
		if class.Class == s.className {
			if s.dimension != 0 && s.dimension != dimension {
				return fmt.Errorf("embedding dimension mismatch: collection has %d, got %d", s.dimension, dimension)
			}
			s.dimension = dimension
			return nil
		}
	}
	err = s.client.Schema().ClassCreator().WithClass(s.classObject()).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create class %s: %v", s.className, err)
	}
	s.dimension = dimension
	log.Printf("Created collection %s with dimension %d", s.className, dimension)
	return nil
}

// chunkID derives a stable UUID from source, page and content hash, so
// re-ingesting byte-identical content overwrites the same object.
func chunkID(chunk types.DocumentChunk) string {
	name := fmt.Sprintf("%s:%d:%s", chunk.Metadata.Source, chunk.Page, utils.ContentHash(chunk.Content))
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

func (s *WeaviateStore) BatchUpsert(ctx context.Context, chunks []types.DocumentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			if s.dimension != 0 && len(vectors[j]) != s.dimension {
				return fmt.Errorf("embedding dimension mismatch at chunk %d: expected %d, got %d", j, s.dimension, len(vectors[j]))
			}
			properties := map[string]interface{}{
				"content":    chunks[j].Content,
				"title":      chunks[j].Metadata.Title,
				"source":     chunks[j].Metadata.Source,
				"section":    chunks[j].Metadata.Section,
				"page":       chunks[j].Page,
				"totalPages": chunks[j].Metadata.TotalPages,
			}
			batcher = batcher.WithObjects(&models.Object{
				ID:         strfmt.UUID(chunkID(chunks[j])),
				Class:      s.className,
				Properties: properties,
				Vector:     vectors[j],
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
		log.Printf("Upserted batch %d-%d of %d chunks", i, end, total)
	}
	return nil
}

func (s *WeaviateStore) Query(ctx context.Context, vector []float32, limit int) ([]types.RetrievedDoc, error) {
	if limit <= 0 {
		limit = 5
	}
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "title"},
		{Name: "source"},
		{Name: "section"},
		{Name: "page"},
		{Name: "totalPages"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	result, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("query failed: %v", result.Errors[0].Message)
	}

	var docs []types.RetrievedDoc
	if data, ok := result.Data["Get"].(map[string]interface{})[s.className].([]interface{}); ok {
		for _, item := range data {
			doc, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			retrieved := types.RetrievedDoc{
				Content: parseString(doc["content"]),
				Score:   types.ScoreUnknown,
				Metadata: types.DocumentMetadata{
					Title:      parseString(doc["title"]),
					Source:     parseString(doc["source"]),
					Section:    parseString(doc["section"]),
					PageNum:    parseInt(doc["page"]),
					TotalPages: parseInt(doc["totalPages"]),
				},
			}
			if additional, ok := doc["_additional"].(map[string]interface{}); ok {
				if distance, ok := additional["distance"].(float64); ok {
					score := 1 - float32(distance)
					if score < 0 {
						score = 0
					}
					if score > 1 {
						score = 1
					}
					retrieved.Score = score
				}
			}
			docs = append(docs, retrieved)
		}
	}
	return docs, nil
}

func (s *WeaviateStore) Stats(ctx context.Context) (int64, error) {
	meta := graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if result.Errors != nil {
		return 0, fmt.Errorf("stats failed: %v", result.Errors[0].Message)
	}
	if data, ok := result.Data["Aggregate"].(map[string]interface{})[s.className].([]interface{}); ok && len(data) > 0 {
		if entry, ok := data[0].(map[string]interface{}); ok {
			if meta, ok := entry["meta"].(map[string]interface{}); ok {
				return int64(parseInt(meta["count"])), nil
			}
		}
	}
	return 0, nil
}

func (s *WeaviateStore) DeleteCollection(ctx context.Context) error {
	return s.client.Schema().ClassDeleter().WithClassName(s.className).Do(ctx)
}

// Helper functions
func parseString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func parseInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
