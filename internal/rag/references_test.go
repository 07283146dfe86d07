package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"research-assistant/internal/corpus"
)

func TestBuildPageReferences(t *testing.T) {
	passages := []Candidate{
		{Chunk: corpus.Chunk{ID: 3, Page: 5, Text: "fifth page first"}},
		{Chunk: corpus.Chunk{ID: 0, Page: 2, Text: "second page first"}},
		{Chunk: corpus.Chunk{ID: 4, Page: 5, Text: "fifth page second"}},
		{Chunk: corpus.Chunk{ID: 1, Page: 2, Text: "second page second"}},
		{Chunk: corpus.Chunk{ID: 9, Page: 1, Text: strings.Repeat("x", 150)}},
	}

	refs := BuildPageReferences(passages)

	if len(refs) != 3 {
		t.Fatalf("len(refs) = %d, want 3", len(refs))
	}
	wantPages := []int{1, 2, 5}
	for i, ref := range refs {
		if ref.Page != wantPages[i] {
			t.Errorf("refs[%d].Page = %d, want %d", i, ref.Page, wantPages[i])
		}
	}
	if refs[1].Preview != "second page first" {
		t.Errorf("page 2 preview = %q, want first occurrence", refs[1].Preview)
	}
	if refs[2].Text != "p.5" {
		t.Errorf("Text = %q, want p.5", refs[2].Text)
	}
	if refs[0].Preview != strings.Repeat("x", 100)+"..." {
		t.Errorf("long preview not truncated: %q", refs[0].Preview)
	}
}

func TestBuildPageReferencesInvariant(t *testing.T) {
	// Any selection yields unique, ascending pages.
	var passages []Candidate
	for i := 0; i < 40; i++ {
		passages = append(passages, Candidate{Chunk: corpus.Chunk{ID: i, Page: (i*7)%11 + 1, Text: "t"}})
	}
	refs := BuildPageReferences(passages)
	for i := 1; i < len(refs); i++ {
		if refs[i].Page <= refs[i-1].Page {
			t.Fatalf("refs not strictly ascending at %d: %d after %d", i, refs[i].Page, refs[i-1].Page)
		}
	}
	if refs := BuildPageReferences(nil); len(refs) != 0 {
		t.Errorf("expected no refs for empty selection, got %v", refs)
	}
}

func TestBuildSources(t *testing.T) {
	long := strings.Repeat("é", 250)
	passages := []Candidate{
		{Chunk: corpus.Chunk{ID: 4, Page: 3, Text: long, FirstLine: "Intro"}},
		{Chunk: corpus.Chunk{ID: 1, Page: 3, Text: "short"}},
	}

	sources := BuildSources(passages)

	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].ChunkID != 4 || sources[1].ChunkID != 1 {
		t.Errorf("selection order not preserved: %+v", sources)
	}
	if n := utf8.RuneCountInString(sources[0].Content); n != 203 {
		t.Errorf("truncated content has %d runes, want 203", n)
	}
	if !strings.HasSuffix(sources[0].Content, "...") {
		t.Error("truncated content missing ellipsis")
	}
	if sources[0].FirstLine != "Intro" || sources[0].Page != 3 {
		t.Errorf("metadata not copied: %+v", sources[0])
	}
	if sources[1].Content != "short" {
		t.Errorf("short content changed: %q", sources[1].Content)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 3, "abc"},
		{"abcd", 3, "abc..."},
		{"", 3, ""},
		{"日本語テキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
