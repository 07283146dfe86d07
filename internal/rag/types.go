package rag

import "research-assistant/internal/corpus"

// Origin records how a candidate entered the selection.
type Origin string

const (
	OriginSemantic  Origin = "semantic"
	OriginCitation  Origin = "citation"
	OriginPageMatch Origin = "page-match"
)

// Candidate is a chunk considered for one question.
type Candidate struct {
	Chunk  corpus.Chunk
	Origin Origin
	// Score is the similarity reported by the index; zero for page matches.
	Score float32
}

// SessionNote is a caller-supplied annotation. A nil Page renders as "unknown".
type SessionNote struct {
	Page    *int   `json:"page"`
	Content string `json:"content"`
}

// Citation is a page reference shown next to the answer.
type Citation struct {
	Page    int    `json:"page"`
	Text    string `json:"text"`
	Preview string `json:"preview"`
}

// Source is one selected passage as returned to the caller.
type Source struct {
	Content   string `json:"content"`
	Page      int    `json:"page"`
	ChunkID   int    `json:"chunk_id"`
	FirstLine string `json:"first_line"`
}

// AnswerResult is the outcome of ProcessQuestion.
type AnswerResult struct {
	Answer         string     `json:"answer"`
	Sources        []Source   `json:"sources"`
	PageReferences []Citation `json:"page_references"`
	// Debug is only populated when requested.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo describes how the passages were selected.
type DebugInfo struct {
	Mode           Mode              `json:"mode"`
	TargetPages    []int             `json:"target_pages,omitempty"`
	Summary        bool              `json:"summary"`
	RetrievalQuery string            `json:"retrieval_query,omitempty"`
	Fallback       bool              `json:"fallback"`
	Retrieved      int               `json:"retrieved"`
	CitationHeavy  int               `json:"citation_heavy"`
	Compressed     bool              `json:"compressed"`
	Selected       []DebugCandidate  `json:"selected"`
	Generation     *GenerationDetail `json:"generation,omitempty"`
}

// DebugCandidate is one selected passage with its diagnostics.
type DebugCandidate struct {
	Rank         int     `json:"rank"`
	ChunkID      int     `json:"chunk_id"`
	Page         int     `json:"page"`
	Origin       Origin  `json:"origin"`
	Score        float32 `json:"score"`
	LexicalScore float32 `json:"lexical_score"`
}

// GenerationDetail reports a failed generation call.
type GenerationDetail struct {
	Error string `json:"error"`
}
