package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContentText(t *testing.T) {
	content := ModelContent{Kind: ContentKindText, Text: "plain answer"}
	assert.Equal(t, "plain answer", NormalizeContent(content))
}

func TestNormalizeContentParts(t *testing.T) {
	content := ModelContent{
		Kind: ContentKindParts,
		Parts: []ContentPart{
			{Type: "text", Text: "first "},
			{Type: "function_call", Text: "ignored"},
			{Text: "second"},
		},
	}
	assert.Equal(t, "first second", NormalizeContent(content))
}

func TestNormalizeContentStructured(t *testing.T) {
	content := ModelContent{
		Kind:       ContentKindStructured,
		Structured: map[string]interface{}{"text": "from structured"},
	}
	assert.Equal(t, "from structured", NormalizeContent(content))

	content = ModelContent{
		Kind:       ContentKindStructured,
		Structured: map[string]interface{}{"verdict": "YES"},
	}
	assert.JSONEq(t, `{"verdict": "YES"}`, NormalizeContent(content))
}

func TestNormalizeContentUnknownKind(t *testing.T) {
	content := ModelContent{Kind: "mystery", Text: "still text"}
	assert.Equal(t, "still text", NormalizeContent(content))

	content = ModelContent{Kind: "mystery", Raw: 42}
	assert.Equal(t, "42", NormalizeContent(content))
}
