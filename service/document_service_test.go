package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/lawchat-be/types"
)

func TestSplitShortPage(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: 200, OverlapSize: 40})
	doc := types.Document{
		Title:  "Civil Code",
		Source: "corpus/civil_code.txt",
		Pages:  []string{"Article 1. This Code regulates civil relations."},
	}

	chunks := svc.Split(doc)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Article 1. This Code regulates civil relations.", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, "Civil Code", chunks[0].Metadata.Title)
	assert.Equal(t, 1, chunks[0].Metadata.TotalPages)
}

func TestSplitSkipsEmptyPagesKeepsNumbering(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: 200, OverlapSize: 40})
	doc := types.Document{
		Title: "Decree",
		Pages: []string{"Page one text.", "   \n  ", "Page three text."},
	}

	chunks := svc.Split(doc)

	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 3, chunks[1].Page, "empty page must not shift later page numbers")
	assert.Equal(t, 3, chunks[0].Metadata.TotalPages)
}

func TestSplitAllEmptyPages(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{})
	chunks := svc.Split(types.Document{Title: "Blank", Pages: []string{"", "  \n"}})
	assert.Empty(t, chunks)
}

func TestSplitLongPageOverlappingChunks(t *testing.T) {
	maxChunkSize := 200
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: maxChunkSize, OverlapSize: 40})
	text := strings.TrimSpace(strings.Repeat("The employer must give written notice before termination. ", 30))
	doc := types.Document{Title: "Labor Code", Pages: []string{text}}

	chunks := svc.Split(doc)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk.Content, "chunk %d must not be empty", i)
		assert.LessOrEqual(t, len(chunk.Content), maxChunkSize+1, "chunk %d exceeds the size limit", i)
		assert.Contains(t, text, chunk.Content, "chunk %d must be a substring of the page", i)
		assert.Equal(t, 1, chunk.Page)
	}
	// Consecutive chunks share overlapping text.
	for i := 0; i < len(chunks)-1; i++ {
		prefix := chunks[i+1].Content[:10]
		assert.Contains(t, chunks[i].Content, prefix, "chunks %d and %d must overlap", i, i+1)
	}
	// The tail of the page must survive into the last chunk.
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1].Content))
}

func TestSplitCoversWholePage(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: 120, OverlapSize: 30})
	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, fmt.Sprintf("Article %d sets out obligation number %d.", i+1, i+1))
	}
	text := strings.Join(sentences, " ")

	chunks := svc.Split(types.Document{Title: "Decree", Pages: []string{text}})

	require.Greater(t, len(chunks), 1)
	for _, sentence := range sentences {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk.Content, sentence) {
				found = true
				break
			}
		}
		assert.True(t, found, "sentence %q lost during chunking", sentence)
	}
}

func TestSplitNeverCutsRunes(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: 101, OverlapSize: 20})
	// No spaces or sentence ends, so every cut lands on the size limit.
	text := strings.Repeat("đ", 300)

	chunks := svc.Split(types.Document{Title: "Mã", Pages: []string{text}})

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Content), "chunk %d is not valid UTF-8", i)
	}
}

func TestSplitDetectsSectionHeading(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: 500, OverlapSize: 50})
	doc := types.Document{
		Title: "Penal Code",
		Pages: []string{"Chapter XIV Crimes Against Property\nArticle 172 covers theft of property."},
	}

	chunks := svc.Split(doc)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Chapter XIV Crimes Against Property", chunks[0].Metadata.Section)
}

func TestSplitNoSectionForSentenceFirstLine(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: 500, OverlapSize: 50})
	doc := types.Document{
		Pages: []string{"This opening line is a full sentence.\nMore text follows here."},
	}

	chunks := svc.Split(doc)

	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Metadata.Section)
}

func TestNewDocumentServiceDefaults(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{MaxChunkSize: -1, OverlapSize: 9999})
	assert.Equal(t, DefaultDocumentServiceConfig.MaxChunkSize, svc.maxChunkSize)
	assert.Equal(t, DefaultDocumentServiceConfig.OverlapSize, svc.overlapSize)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "civil_code.txt"), []byte("page one\fpage two"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("single page"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	svc := NewDocumentService(types.DocumentServiceConfig{})
	documents, err := svc.LoadDirectory(dir)

	require.NoError(t, err)
	require.Len(t, documents, 2)
	assert.Equal(t, "civil_code", documents[0].Title)
	assert.Equal(t, []string{"page one", "page two"}, documents[0].Pages)
	assert.Equal(t, "notes", documents[1].Title)
	assert.Equal(t, []string{"single page"}, documents[1].Pages)
}

func TestLoadDirectoryMissing(t *testing.T) {
	svc := NewDocumentService(types.DocumentServiceConfig{})
	_, err := svc.LoadDirectory(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
