package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tieubaoca/lawchat-be/database"
	"github.com/tieubaoca/lawchat-be/types"
)

// IngestService orchestrates splitter, embedder and vector store. Any
// stage failure aborts the whole run; nothing is written to the index
// until every chunk has an embedding.
type IngestService struct {
	documents *DocumentService
	embedder  Embedder
	vectorDB  database.VectorDatabase
	batchSize int
}

func NewIngestService(
	documents *DocumentService,
	embedder Embedder,
	vectorDB database.VectorDatabase,
	batchSize int,
) *IngestService {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &IngestService{
		documents: documents,
		embedder:  embedder,
		vectorDB:  vectorDB,
		batchSize: batchSize,
	}
}

func failedIngest(start time.Time, format string, args ...interface{}) types.IngestResult {
	message := fmt.Sprintf(format, args...)
	log.Println("Ingestion failed:", message)
	return types.IngestResult{
		Success:          false,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Message:          message,
	}
}

// Ingest splits, embeds and indexes the given documents.
func (s *IngestService) Ingest(ctx context.Context, documents []types.Document) types.IngestResult {
	start := time.Now()

	if len(documents) == 0 {
		return failedIngest(start, "no documents to ingest")
	}

	var chunks []types.DocumentChunk
	totalPages := 0
	for _, doc := range documents {
		totalPages += len(doc.Pages)
		chunks = append(chunks, s.documents.Split(doc)...)
	}
	if len(chunks) == 0 {
		return failedIngest(start, "documents contained no extractable text")
	}
	log.Printf("Split %d documents into %d chunks (%d pages)", len(documents), len(chunks), totalPages)

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += s.batchSize {
		if err := ctx.Err(); err != nil {
			return failedIngest(start, "ingestion cancelled: %v", err)
		}
		end := i + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-i)
		for _, chunk := range chunks[i:end] {
			texts = append(texts, chunk.Content)
		}
		batch, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return failedIngest(start, "failed to embed batch %d-%d: %v", i, end, err)
		}
		vectors = append(vectors, batch...)
	}

	// Dimension is known only after the first embedding call; ensuring the
	// collection here may create it as a side effect.
	dimension := s.embedder.Dimension()
	if err := s.vectorDB.EnsureCollection(ctx, dimension); err != nil {
		return failedIngest(start, "failed to ensure collection: %v", err)
	}

	if err := s.vectorDB.BatchUpsert(ctx, chunks, vectors); err != nil {
		return failedIngest(start, "failed to upsert chunks: %v", err)
	}

	elapsed := time.Since(start)
	log.Printf("Ingested %d chunks from %d pages in %s", len(chunks), totalPages, elapsed)
	return types.IngestResult{
		Success:          true,
		TotalChunks:      len(chunks),
		TotalPages:       totalPages,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}

// IngestDirectory loads a corpus directory and ingests it.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) types.IngestResult {
	start := time.Now()
	documents, err := s.documents.LoadDirectory(dir)
	if err != nil {
		return failedIngest(start, "failed to load corpus: %v", err)
	}
	return s.Ingest(ctx, documents)
}
