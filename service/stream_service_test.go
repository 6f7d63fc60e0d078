package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/lawchat-be/types"
)

func collectEvents(t *testing.T, events <-chan types.StreamEvent) []types.StreamEvent {
	t.Helper()
	var collected []types.StreamEvent
	for event := range events {
		collected = append(collected, event)
	}
	return collected
}

func terminalEvents(events []types.StreamEvent) []types.StreamEvent {
	var terminals []types.StreamEvent
	for _, event := range events {
		if event.Type == types.TypeStreamComplete || event.Type == types.TypeStreamError {
			terminals = append(terminals, event)
		}
	}
	return terminals
}

func TestAnswerStreamTokensThenComplete(t *testing.T) {
	llm := scriptedLLM("Notice periods are set by Article 35.", "q1\nq2\nq3", `{"lawyerRecommendations": []}`)
	docs := []types.RetrievedDoc{
		{Content: "Article 35 notice periods.", Score: 0.8, Metadata: types.DocumentMetadata{Title: "Labor Code", PageNum: 12}},
	}
	stream := NewStreamService(newTestRAG(llm, &mockEmbedder{}, &mockVectorDB{docs: docs}))

	events := collectEvents(t, stream.AnswerStream(context.Background(), "What notice period does the labor code require?", nil))

	require.NotEmpty(t, events)
	terminals := terminalEvents(events)
	require.Len(t, terminals, 1, "exactly one terminal event")
	assert.Equal(t, types.TypeStreamComplete, terminals[0].Type)
	assert.Equal(t, terminals[0], events[len(events)-1], "terminal must be the last event")

	var sawMetadata, sawToken bool
	for _, event := range events {
		switch event.Type {
		case types.TypeStreamMetadata:
			sawMetadata = true
			require.NotNil(t, event.Metadata)
			assert.Len(t, event.Metadata.Sources, 1)
			assert.InDelta(t, 0.7, event.Metadata.Confidence, 1e-6)
			require.NotNil(t, event.Response)
			assert.Equal(t, types.StatusPartial, event.Response.Status)
			assert.Empty(t, event.Response.Answer)
			assert.False(t, sawToken, "metadata must precede tokens")
		case types.TypeStreamToken:
			sawToken = true
			assert.NotEmpty(t, event.Token)
		}
	}
	assert.True(t, sawMetadata)
	assert.True(t, sawToken)

	response := terminals[0].Response
	require.NotNil(t, response)
	assert.Equal(t, types.StatusComplete, response.Status)
	assert.Len(t, response.Citations, 1)
}

func TestAnswerStreamGeneralPathSkipsMetadata(t *testing.T) {
	stream := NewStreamService(newTestRAG(&mockLLM{}, &mockEmbedder{}, &mockVectorDB{}))

	events := collectEvents(t, stream.AnswerStream(context.Background(), "hello", nil))

	for _, event := range events {
		assert.NotEqual(t, types.TypeStreamMetadata, event.Type)
	}
	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, types.TypeStreamComplete, terminals[0].Type)
}

func TestAnswerStreamRetrievalErrorTerminal(t *testing.T) {
	vectorDB := &mockVectorDB{queryErr: errors.New("index down")}
	stream := NewStreamService(newTestRAG(scriptedLLM("x", "", "{}"), &mockEmbedder{}, vectorDB))

	events := collectEvents(t, stream.AnswerStream(context.Background(), "contract law question", nil))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, types.TypeStreamError, terminals[0].Type)
	require.NotNil(t, terminals[0].Response)
	assert.Equal(t, types.StatusError, terminals[0].Response.Status)
	assert.Zero(t, terminals[0].Response.Metrics.Confidence)
}

func TestAnswerStreamModelPanicStillTerminates(t *testing.T) {
	llm := &mockLLM{
		invokeFn: func(system string, messages []types.Message) (*ModelResponse, error) {
			panic("client bug")
		},
	}
	docs := []types.RetrievedDoc{{Content: "chunk", Metadata: types.DocumentMetadata{PageNum: 1}}}
	stream := NewStreamService(newTestRAG(llm, &mockEmbedder{}, &mockVectorDB{docs: docs}))

	events := collectEvents(t, stream.AnswerStream(context.Background(), "contract law question", nil))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, types.TypeStreamError, terminals[0].Type)
}
