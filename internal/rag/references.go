package rag

import (
	"fmt"
	"sort"
)

const (
	sourcePreviewRunes   = 200
	citationPreviewRunes = 100
)

// BuildSources returns one Source per passage, in selection order.
func BuildSources(passages []Candidate) []Source {
	sources := make([]Source, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, Source{
			Content:   truncateRunes(p.Chunk.Text, sourcePreviewRunes),
			Page:      p.Chunk.Page,
			ChunkID:   p.Chunk.ID,
			FirstLine: p.Chunk.FirstLine,
		})
	}
	return sources
}

// BuildPageReferences returns one Citation per distinct page, keeping the preview
// of the first passage seen on that page, sorted ascending by page.
func BuildPageReferences(passages []Candidate) []Citation {
	refs := make([]Citation, 0, len(passages))
	seen := make(map[int]struct{}, len(passages))
	for _, p := range passages {
		page := p.Chunk.Page
		if page < 1 {
			page = 1
		}
		if _, dup := seen[page]; dup {
			continue
		}
		seen[page] = struct{}{}
		refs = append(refs, Citation{
			Page:    page,
			Text:    fmt.Sprintf("p.%d", page),
			Preview: truncateRunes(p.Chunk.Text, citationPreviewRunes),
		})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Page < refs[j].Page })
	return refs
}

// truncateRunes cuts s to n runes and appends "..." when anything was dropped.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
