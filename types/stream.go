package types

// Websocket / stream event types. Every stream ends with exactly one
// complete or error event.
const (
	TypeStreamToken    = "token"
	TypeStreamMetadata = "metadata"
	TypeStreamComplete = "complete"
	TypeStreamError    = "error"

	TypeWebsocketPing = "ping"
	TypeWebsocketPong = "pong"
	TypeWebsocketAsk  = "ask"
)

// StreamEvent is one increment of a streamed answer.
type StreamEvent struct {
	Type     string             `json:"type"`
	Token    string             `json:"token,omitempty"`
	Metadata *StreamMetadata    `json:"metadata,omitempty"`
	Response *AssistantResponse `json:"response,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// StreamMetadata previews retrieval results before the full answer is ready.
type StreamMetadata struct {
	Sources    []EnhancedSource `json:"sources"`
	Confidence float32          `json:"confidence"`
}

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type WebsocketAskPayload struct {
	Question string    `json:"question"`
	Messages []Message `json:"messages,omitempty"`
}

type WebsocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StreamHandler receives incremental answer text.
type StreamHandler func(token string)

// MetadataHandler receives the one retrieval preview per streamed answer.
type MetadataHandler func(meta StreamMetadata)
