package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"research-assistant/internal/corpus"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap are measured in runes.
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 100
	// ChunkerVersion identifies the splitting rules; part of the index version hash.
	ChunkerVersion = "v2.0"

	maxFirstLineRunes = 100
)

var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts pages into overlapping chunks with a recursive character splitter.
// Chunks never cross a page boundary.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter. Zero values select the defaults.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d): got %d", chunkSize, chunkOverlap)
	}

	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(separators),
		),
	}, nil
}

// Split turns pages into corpus chunks numbered in creation order.
// Blank pages produce no chunks.
func (s *Splitter) Split(pages []Page) ([]corpus.Chunk, error) {
	var chunks []corpus.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		parts, err := s.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}

		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ordinal := len(chunks)
			chunks = append(chunks, corpus.Chunk{
				ID:        ordinal,
				Page:      page.Number,
				Ordinal:   ordinal,
				Text:      part,
				FirstLine: firstLine(part),
			})
		}
	}

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks, nil
}

// firstLine returns the first non-blank line, cut to maxFirstLineRunes.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxFirstLineRunes {
			return string([]rune(line)[:maxFirstLineRunes])
		}
		return line
	}
	return ""
}
