package chunker

import (
	"regexp"
	"strings"

	"ChallengeScanner/internal/domain"
)

const (
	minDocumentLength = 100 // chars; shorter documents are unchunkable
	minChunkLength    = 50  // chars; shorter segments are discarded
)

// Heading-like boundaries: markdown headers, or a capitalized line ending
// in a colon followed by a line break.
var sectionExpr = regexp.MustCompile(`\n(?:#+\s+|[A-Z][^:\n]*:\s*\n)`)

// Chunker splits document text into bounded segments for model input.
type Chunker struct {
	chunkSize   int
	overlapSize int
}

// New builds a chunker producing windows of chunkSize words that overlap
// by floor(chunkSize*overlap) words.
func New(chunkSize int, overlap float64) *Chunker {
	return &Chunker{
		chunkSize:   chunkSize,
		overlapSize: int(float64(chunkSize) * overlap),
	}
}

// ChunkDocument splits text and stamps metadata onto every produced chunk.
// Text shorter than the minimum document length yields no chunks.
func (c *Chunker) ChunkDocument(text string, metadata map[string]any) []domain.Chunk {
	if len(strings.TrimSpace(text)) < minDocumentLength {
		return nil
	}

	chunks := c.chunkSmart(text)
	for i := range chunks {
		chunks[i].Metadata = metadata
	}
	return chunks
}

// chunkSmart tries section splitting first; a single section means the
// document is unstructured and falls back to fixed-size windows.
func (c *Chunker) chunkSmart(text string) []domain.Chunk {
	sections := c.chunkBySections(text)
	if len(sections) > 1 {
		return sections
	}
	return c.chunkBySize(text)
}

func (c *Chunker) chunkBySections(text string) []domain.Chunk {
	var chunks []domain.Chunk

	for i, section := range sectionExpr.Split(text, -1) {
		trimmed := strings.TrimSpace(section)
		if len(trimmed) > minChunkLength {
			chunks = append(chunks, domain.Chunk{
				Text:   trimmed,
				Index:  i,
				Method: domain.ChunkMethodSection,
			})
		}
	}

	return chunks
}

func (c *Chunker) chunkBySize(text string) []domain.Chunk {
	var chunks []domain.Chunk
	words := strings.Fields(text)

	start := 0
	index := 0
	for start < len(words) {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunkText := strings.Join(words[start:end], " ")
		if len(strings.TrimSpace(chunkText)) > minChunkLength {
			chunks = append(chunks, domain.Chunk{
				Text:      chunkText,
				Index:     index,
				Method:    domain.ChunkMethodFixedSize,
				WordCount: end - start,
			})
			index++
		}

		if end < len(words) {
			start = end - c.overlapSize
		} else {
			start = end
		}
	}

	return chunks
}
