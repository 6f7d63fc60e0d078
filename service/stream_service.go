package service

import (
	"context"
	"log"

	"github.com/tieubaoca/lawchat-be/types"
)

// StreamService delivers answers incrementally: token events while the
// composer runs, one metadata event carrying a partial response preview
// once retrieval is known, and exactly one terminal complete or error
// event.
type StreamService struct {
	rag *RAGService
}

func NewStreamService(rag *RAGService) *StreamService {
	return &StreamService{rag: rag}
}

// AnswerStream returns immediately; a background goroutine drives the
// composer and closes the channel after the terminal event.
func (s *StreamService) AnswerStream(ctx context.Context, question string, recentTurns []types.Message) <-chan types.StreamEvent {
	events := make(chan types.StreamEvent, 16)

	go func() {
		defer close(events)
		terminal := false
		defer func() {
			// The terminal event must be emitted exactly once, even if the
			// composer panicked before producing anything.
			if r := recover(); r != nil {
				log.Printf("Stream pipeline panicked: %v", r)
			}
			if !terminal {
				emit(ctx, events, types.StreamEvent{
					Type:  types.TypeStreamError,
					Error: "answer generation failed",
				})
			}
		}()

		onToken := func(token string) {
			emit(ctx, events, types.StreamEvent{
				Type:  types.TypeStreamToken,
				Token: token,
			})
		}
		onMetadata := func(meta types.StreamMetadata) {
			emit(ctx, events, types.StreamEvent{
				Type:     types.TypeStreamMetadata,
				Metadata: &meta,
				Response: partialResponse(meta),
			})
		}

		response := s.rag.answer(ctx, question, recentTurns, onToken, onMetadata)
		if response.Status == types.StatusError {
			terminal = emit(ctx, events, types.StreamEvent{
				Type:     types.TypeStreamError,
				Error:    response.Answer,
				Response: response,
			})
			return
		}
		terminal = emit(ctx, events, types.StreamEvent{
			Type:     types.TypeStreamComplete,
			Response: response,
		})
	}()

	return events
}

// partialResponse previews the retrieval outcome before the answer text
// exists. The terminal event replaces it with the complete response.
func partialResponse(meta types.StreamMetadata) *types.AssistantResponse {
	return &types.AssistantResponse{
		Status:    types.StatusPartial,
		Citations: []types.Citation{},
		Sources:   meta.Sources,
		FollowUps: []string{},
		Metrics:   types.ResponseMetrics{Confidence: meta.Confidence},
		Version:   types.ResponseVersion,
	}
}

// emit delivers an event unless the caller has gone away.
func emit(ctx context.Context, events chan<- types.StreamEvent, event types.StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
