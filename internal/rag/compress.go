package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultCompressionBudget is the combined-text length, in runes, above which
// the compressor summarizes.
const DefaultCompressionBudget = 4000

// Compressor shrinks long contexts before generation.
type Compressor struct {
	gen       *Generator
	maxLength int
}

// NewCompressor creates a Compressor; maxLength <= 0 selects DefaultCompressionBudget.
func NewCompressor(gen *Generator, maxLength int) *Compressor {
	if maxLength <= 0 {
		maxLength = DefaultCompressionBudget
	}
	return &Compressor{gen: gen, maxLength: maxLength}
}

func joinPassages(passages []Candidate) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}

// Exceeds reports whether the joined passage text is over the budget, that is,
// whether Compress would summarize or truncate rather than return it as is.
func (c *Compressor) Exceeds(passages []Candidate) bool {
	return utf8.RuneCountInString(joinPassages(passages)) > c.maxLength
}

// Compress joins the passages and, if they exceed the budget, summarizes the
// leading maxLength runes. A failed summary degrades to hard truncation.
func (c *Compressor) Compress(ctx context.Context, passages []Candidate) string {
	combined := joinPassages(passages)

	r := []rune(combined)
	if len(r) <= c.maxLength {
		return combined
	}
	leading := string(r[:c.maxLength])

	out := c.gen.Generate(ctx, fmt.Sprintf(summarizeTemplate, leading))
	if !out.OK() {
		return leading + "... (truncated)"
	}
	return out.Text
}
