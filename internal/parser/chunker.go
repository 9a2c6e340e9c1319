package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"endee-rag/internal/config"
	"endee-rag/internal/helper"
	"endee-rag/internal/models"
)

// ChunkText splits text on whitespace and slides a window of size words,
// advancing by size-overlap words. The last window may be shorter than size.
// Callers must ensure 0 <= overlap < size.
func ChunkText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	stride := size - overlap
	if size <= 0 || stride <= 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := min(start+size, len(words))
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// Processor turns a document on disk into identified chunks
type Processor struct {
	chunkSize    int
	chunkOverlap int
}

// NewProcessor validates the window parameters; an overlap that is not
// smaller than the size would never advance.
func NewProcessor(chunkSize, chunkOverlap int) (*Processor, error) {
	if err := config.ValidateChunking(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	return &Processor{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// ChunkText splits text with the processor's window parameters.
func (p *Processor) ChunkText(text string) []string {
	return ChunkText(text, p.chunkSize, p.chunkOverlap)
}

// ProcessDocument loads filePath and returns its chunks. Every chunk gets a
// fresh ID, the file's base name as source, its position and the total count.
func (p *Processor) ProcessDocument(filePath string) ([]models.Chunk, error) {
	text, err := LoadText(filePath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filePath, err)
	}
	return p.Split(text, filepath.Base(filePath))
}

// Split chunks already-loaded text under the given source name.
func (p *Processor) Split(text, source string) ([]models.Chunk, error) {
	texts := p.ChunkText(text)
	chunks := make([]models.Chunk, 0, len(texts))
	for idx, t := range texts {
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, models.Chunk{
			ID:          id,
			Text:        t,
			Source:      source,
			ChunkIndex:  idx,
			TotalChunks: len(texts),
		})
	}
	return chunks, nil
}
