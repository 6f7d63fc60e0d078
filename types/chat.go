package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation. The pipeline only
// reads these, it never mutates them.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type ChatRequest struct {
	ChatId   string    `json:"chat_id"`
	Question string    `json:"question"`
	Messages []Message `json:"messages,omitempty"`
}

type ChatResponse struct {
	ChatId   string             `json:"chat_id"`
	Response *AssistantResponse `json:"response"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SearchResponse struct {
	Documents []RetrievedDoc `json:"documents"`
}

type IngestRequest struct {
	Dir string `json:"dir,omitempty"`
}
