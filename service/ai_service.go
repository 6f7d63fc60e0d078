package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tieubaoca/lawchat-be/types"
)

// Content kinds returned by language model providers. OpenAI-compatible
// servers reply with a plain string, Gemini replies with a list of typed
// parts, and JSON-mode replies decode to a structured object.
const (
	ContentKindText       = "text"
	ContentKindParts      = "parts"
	ContentKindStructured = "structured"
)

// ContentPart is one typed fragment of a multi-part model reply.
type ContentPart struct {
	Type string
	Text string
}

// ModelContent is the tagged union of known provider reply shapes.
type ModelContent struct {
	Kind       string
	Text       string
	Parts      []ContentPart
	Structured map[string]interface{}
	Raw        interface{} // fallback for unknown shapes
}

// ModelResponse is the normalized-enough result of one model invocation.
type ModelResponse struct {
	Content ModelContent
	Usage   *types.TokenUsage
}

// LanguageModel is the capability interface over generative providers.
type LanguageModel interface {
	// Invoke runs one completion over a system prompt and conversation turns.
	Invoke(ctx context.Context, system string, messages []types.Message) (*ModelResponse, error)
	// InvokeStream behaves like Invoke but forwards incremental text to
	// handler as it arrives. The returned response holds the full text.
	InvokeStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) (*ModelResponse, error)
}

// Embedder is the capability interface over embedding providers.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the vector length, 0 until the first embedding call.
	Dimension() int
}

// NormalizeContent flattens any known reply shape to plain text. Textual
// sub-parts are concatenated; structured objects are re-serialized; unknown
// shapes fall back to a best-effort string coercion.
func NormalizeContent(content ModelContent) string {
	switch content.Kind {
	case ContentKindText:
		return content.Text
	case ContentKindParts:
		var sb strings.Builder
		for _, part := range content.Parts {
			if part.Type == "" || part.Type == "text" {
				sb.WriteString(part.Text)
			}
		}
		return sb.String()
	case ContentKindStructured:
		if text, ok := content.Structured["text"].(string); ok {
			return text
		}
		data, err := json.Marshal(content.Structured)
		if err != nil {
			return fmt.Sprintf("%v", content.Structured)
		}
		return string(data)
	default:
		if content.Text != "" {
			return content.Text
		}
		return fmt.Sprintf("%v", content.Raw)
	}
}
