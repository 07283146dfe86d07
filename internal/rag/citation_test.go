package rag

import (
	"reflect"
	"strings"
	"testing"

	"research-assistant/internal/corpus"
)

func TestIsCitationHeavy(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "plain content", text: "The encoder maps an input sequence to representations.", want: false},
		{name: "three markers", text: "as shown [1], [2] and [3].", want: false},
		{name: "four markers", text: "[1] A. [2] B. [3] C. [4] D.", want: true},
		{name: "repeated marker counts each time", text: "[7] [7] [7] [7]", want: true},
		{name: "markers above 49 ignored", text: "[50] [51] [52] [53] [54]", want: false},
		{name: "arxiv and proceedings", text: "In Proceedings of ACL. arXiv preprint.", want: true},
		{name: "arxiv alone", text: "Available on arXiv.", want: false},
		{name: "two et al", text: "Vaswani et al. and Bahdanau et al.", want: false},
		{name: "three et al", text: "Smith et al., Jones et al., Lee ET AL.", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCitationHeavy(tt.text, h); got != tt.want {
				t.Errorf("IsCitationHeavy(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsCitationHeavyIsPure(t *testing.T) {
	h := DefaultHeuristics()
	text := strings.Repeat("Smith et al. ", 3)
	first := IsCitationHeavy(text, h)
	for i := 0; i < 5; i++ {
		if IsCitationHeavy(text, h) != first {
			t.Fatal("classification changed between calls")
		}
	}
}

func TestPartitionCitations(t *testing.T) {
	h := DefaultHeuristics()
	refs := "[1] a [2] b [3] c [4] d"
	in := []Candidate{
		{Chunk: corpus.Chunk{ID: 0, Text: "content a"}, Origin: OriginSemantic},
		{Chunk: corpus.Chunk{ID: 1, Text: refs}, Origin: OriginSemantic},
		{Chunk: corpus.Chunk{ID: 2, Text: "content b"}, Origin: OriginSemantic},
		{Chunk: corpus.Chunk{ID: 3, Text: refs}, Origin: OriginSemantic},
	}

	content, citation := PartitionCitations(in, h)

	var contentIDs, citationIDs []int
	for _, c := range content {
		contentIDs = append(contentIDs, c.Chunk.ID)
		if c.Origin != OriginSemantic {
			t.Errorf("content origin = %v", c.Origin)
		}
	}
	for _, c := range citation {
		citationIDs = append(citationIDs, c.Chunk.ID)
		if c.Origin != OriginCitation {
			t.Errorf("citation origin = %v", c.Origin)
		}
	}
	if !reflect.DeepEqual(contentIDs, []int{0, 2}) {
		t.Errorf("content = %v, want [0 2]", contentIDs)
	}
	if !reflect.DeepEqual(citationIDs, []int{1, 3}) {
		t.Errorf("citation = %v, want [1 3]", citationIDs)
	}
	if in[1].Origin != OriginSemantic {
		t.Error("input slice was modified")
	}
}
