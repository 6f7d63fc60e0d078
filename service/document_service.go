package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tieubaoca/lawchat-be/types"
	"github.com/tieubaoca/lawchat-be/utils"
)

// DocumentService splits raw documents into overlapping chunks and loads
// plain-text corpora from disk.
type DocumentService struct {
	maxChunkSize int // Maximum size of each text chunk
	overlapSize  int // Size of overlap between chunks
}

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxChunkSize: 1024,
	OverlapSize:  128,
}

func NewDocumentService(config types.DocumentServiceConfig) *DocumentService {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultDocumentServiceConfig.MaxChunkSize
	}
	if config.OverlapSize < 0 || config.OverlapSize >= config.MaxChunkSize {
		config.OverlapSize = DefaultDocumentServiceConfig.OverlapSize
	}
	return &DocumentService{
		maxChunkSize: config.MaxChunkSize,
		overlapSize:  config.OverlapSize,
	}
}

// Split turns a document into ordered chunks. Pages with no extractable
// text contribute zero chunks; no chunk is ever empty.
func (s *DocumentService) Split(doc types.Document) []types.DocumentChunk {
	var chunks []types.DocumentChunk
	totalPages := len(doc.Pages)
	for i, page := range doc.Pages {
		text := utils.CleanText(page)
		if text == "" {
			continue
		}
		metadata := types.DocumentMetadata{
			Title:      doc.Title,
			Source:     doc.Source,
			Section:    detectSection(text),
			PageNum:    i + 1,
			TotalPages: totalPages,
		}
		chunks = append(chunks, s.createChunks(text, metadata)...)
	}
	return chunks
}

// createChunks splits page text into overlapping chunks, preferring
// sentence boundaries, then word boundaries.
func (s *DocumentService) createChunks(text string, metadata types.DocumentMetadata) []types.DocumentChunk {
	textLen := len(text)
	if textLen <= s.maxChunkSize {
		return []types.DocumentChunk{{
			Content:  text,
			Page:     metadata.PageNum,
			Metadata: metadata,
		}}
	}

	var chunks []types.DocumentChunk
	currentPos := 0
	for currentPos < textLen {
		chunkEnd := currentPos + s.maxChunkSize
		if chunkEnd >= textLen {
			chunk := strings.TrimSpace(text[currentPos:])
			if chunk != "" {
				chunks = append(chunks, types.DocumentChunk{
					Content:  chunk,
					Page:     metadata.PageNum,
					Metadata: metadata,
				})
			}
			break
		}

		// Find nearest sentence end before the size limit
		sentenceEnd := chunkEnd
		for i := chunkEnd; i > currentPos; i-- {
			if text[i] == '.' || text[i] == '?' || text[i] == '!' {
				sentenceEnd = i + 1
				break
			}
		}

		// If no sentence end found, use word boundary
		if sentenceEnd == chunkEnd {
			for i := chunkEnd; i > currentPos; i-- {
				if text[i] == ' ' {
					sentenceEnd = i
					break
				}
			}
		}

		// No boundary at all: back off to the previous rune start so the
		// cut never splits a multi-byte character.
		if sentenceEnd == chunkEnd {
			for sentenceEnd > currentPos && !utf8.RuneStart(text[sentenceEnd]) {
				sentenceEnd--
			}
			if sentenceEnd == currentPos {
				sentenceEnd = chunkEnd
			}
		}

		chunk := strings.TrimSpace(text[currentPos:sentenceEnd])
		if chunk != "" {
			chunks = append(chunks, types.DocumentChunk{
				Content:  chunk,
				Page:     metadata.PageNum,
				Metadata: metadata,
			})
		}

		// Step back by the overlap, but always make progress
		next := sentenceEnd - s.overlapSize
		if next <= currentPos {
			next = sentenceEnd
		}
		currentPos = next
	}
	return chunks
}

// detectSection treats a short first line without sentence punctuation as a
// section heading.
func detectSection(text string) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx != -1 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 80 {
		return ""
	}
	if strings.ContainsAny(line, ".?!") {
		return ""
	}
	return line
}

// LoadDirectory reads .txt and .md files from dir into documents. A form
// feed separates pages, matching pdftotext output; files without one load
// as a single page.
func (s *DocumentService) LoadDirectory(dir string) ([]types.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}
	var documents []types.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		documents = append(documents, types.Document{
			Title:  strings.TrimSuffix(entry.Name(), ext),
			Source: path,
			Pages:  strings.Split(string(data), "\f"),
		})
	}
	return documents, nil
}
