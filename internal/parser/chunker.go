package parser

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"askrag/internal/models"
)

// Splitter cuts page text into overlapping chunks, trying each separator in turn
// before falling back to the next finer one. Separators stay in the output, so a
// sentence cut at a period keeps its terminator.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, chunkOverlap int, separators []string) *Splitter {
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithKeepSeparator(true),
		),
	}
}

// Split chunks every page of source. Chunk IDs are 1-based and run across the whole
// document; blank chunks are dropped.
func (s *Splitter) Split(source string, pages []Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		parts, err := s.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d of %s: %w", page.Number, source, err)
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Content:    part,
				Source:     source,
				PageNumber: page.Number,
				ChunkID:    len(chunks) + 1,
			})
		}
	}
	return chunks, nil
}
