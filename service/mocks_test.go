package service

import (
	"context"
	"sync/atomic"

	"github.com/tieubaoca/lawchat-be/types"
)

// mockLLM scripts language model behavior per test. invokeFn may inspect
// the system prompt and messages to decide what to answer.
type mockLLM struct {
	invokeFn func(system string, messages []types.Message) (*ModelResponse, error)
	calls    int32
}

func textResponse(text string) *ModelResponse {
	return &ModelResponse{Content: ModelContent{Kind: ContentKindText, Text: text}}
}

func (m *mockLLM) Invoke(ctx context.Context, system string, messages []types.Message) (*ModelResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.invokeFn != nil {
		return m.invokeFn(system, messages)
	}
	return textResponse("mock answer"), nil
}

func (m *mockLLM) InvokeStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) (*ModelResponse, error) {
	resp, err := m.Invoke(ctx, system, messages)
	if err != nil {
		return nil, err
	}
	if handler != nil {
		handler(NormalizeContent(resp.Content))
	}
	return resp, nil
}

func (m *mockLLM) callCount() int {
	return int(atomic.LoadInt32(&m.calls))
}

type mockEmbedder struct {
	vector []float32
	err    error
	calls  int32
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	vector := m.vector
	if vector == nil {
		vector = []float32{0.1, 0.2, 0.3}
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = vector
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimension() int {
	vector := m.vector
	if vector == nil {
		return 3
	}
	return len(vector)
}

type mockVectorDB struct {
	docs       []types.RetrievedDoc
	queryErr   error
	ensureErr  error
	upsertErr  error
	queryCalls int32

	ensuredDimension int
	upsertedChunks   []types.DocumentChunk
	upsertedVectors  [][]float32
}

func (m *mockVectorDB) EnsureCollection(ctx context.Context, dimension int) error {
	if m.ensureErr != nil {
		return m.ensureErr
	}
	m.ensuredDimension = dimension
	return nil
}

func (m *mockVectorDB) BatchUpsert(ctx context.Context, chunks []types.DocumentChunk, vectors [][]float32) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertedChunks = append(m.upsertedChunks, chunks...)
	m.upsertedVectors = append(m.upsertedVectors, vectors...)
	return nil
}

func (m *mockVectorDB) Query(ctx context.Context, vector []float32, limit int) ([]types.RetrievedDoc, error) {
	atomic.AddInt32(&m.queryCalls, 1)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if limit < len(m.docs) {
		return m.docs[:limit], nil
	}
	return m.docs, nil
}

func (m *mockVectorDB) Stats(ctx context.Context) (int64, error) {
	return int64(len(m.upsertedChunks)), nil
}

func (m *mockVectorDB) DeleteCollection(ctx context.Context) error {
	return nil
}

func (m *mockVectorDB) queryCount() int {
	return int(atomic.LoadInt32(&m.queryCalls))
}
