package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestContentHashStable(t *testing.T) {
	assert.Equal(t, ContentHash("Article 1. Scope."), ContentHash("Article 1. Scope."))
	assert.Len(t, ContentHash("anything"), 12)
}

func TestContentHashDiffers(t *testing.T) {
	assert.NotEqual(t, ContentHash("Article 1."), ContentHash("Article 2."))
}

func TestContentHashIgnoresTailBeyondPrefix(t *testing.T) {
	prefix := strings.Repeat("a", 100)
	assert.Equal(t, ContentHash(prefix+"tail one"), ContentHash(prefix+"tail two"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exact", TruncateString("exact", 5))
	assert.Equal(t, "abc...", TruncateString("abcdef", 3))
}

func TestTruncateStringRuneSafe(t *testing.T) {
	s := strings.Repeat("đ", 10) // 2 bytes per rune
	out := TruncateString(s, 5)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "đđ...", out)

	out = TruncateString("điều luật về thừa kế", 9)
	assert.True(t, utf8.ValidString(out))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence(`{"a": 1}`))
	assert.Equal(t, `{"a": 1}`, StripCodeFence("  {\"a\": 1}  "))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello world", CleanText("hello\u0000 \ufffdworld"))
	assert.Equal(t, "line one\nline two", CleanText("line one\r\fline two"))
	assert.Equal(t, "a b c", CleanText("a    b  c"))
	assert.Equal(t, "trimmed", CleanText("   trimmed   "))
	assert.Equal(t, "", CleanText("  \u0000  "))
}
