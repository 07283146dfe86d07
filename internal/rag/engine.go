package rag

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/corpus"
)

// EngineConfig tunes an Engine. Zero values select defaults.
type EngineConfig struct {
	// K is the number of candidates requested from the retriever.
	K int
	// ContextBudget is the joined passage length, in runes, above which the context is compressed.
	ContextBudget int
	// Compress enables the context compressor.
	Compress bool
	// Heuristics overrides DefaultHeuristics when non-nil.
	Heuristics *Heuristics
}

// Request is one question for the engine.
type Request struct {
	Question string
	Notes    []SessionNote
	// Debug attaches selection diagnostics to the result.
	Debug bool
}

// Engine selects passages for a question, generates an answer and attaches
// page references. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	corpus     *corpus.Corpus
	retriever  Retriever
	generator  *Generator
	compressor *Compressor
	heuristics Heuristics
	k          int
}

// NewEngine creates an Engine over an ingested corpus.
func NewEngine(c *corpus.Corpus, retriever Retriever, model ChatModel, cfg EngineConfig) (*Engine, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	if retriever == nil || model == nil {
		return nil, fmt.Errorf("retriever and chat model are required")
	}

	h := DefaultHeuristics()
	if cfg.Heuristics != nil {
		h = *cfg.Heuristics
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("invalid heuristics: %w", err)
	}
	if cfg.K <= 0 {
		cfg.K = DefaultRetrievalK
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = DefaultCompressionBudget
	}

	gen := NewGenerator(model)
	e := &Engine{
		corpus:     c,
		retriever:  retriever,
		generator:  gen,
		heuristics: h,
		k:          cfg.K,
	}
	if cfg.Compress {
		e.compressor = NewCompressor(gen, cfg.ContextBudget)
	}
	return e, nil
}

// TotalDocuments returns the number of chunks in the corpus.
func (e *Engine) TotalDocuments() int {
	return e.corpus.Len()
}

// ProcessQuestion answers question using notes as extra prompt context.
// Only retrieval failures are returned as errors; generation failures become
// the answer text.
func (e *Engine) ProcessQuestion(ctx context.Context, question string, notes []SessionNote) (AnswerResult, error) {
	return e.Answer(ctx, Request{Question: question, Notes: notes})
}

// Answer is ProcessQuestion with request options.
func (e *Engine) Answer(ctx context.Context, req Request) (AnswerResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	q := Classify(req.Question, e.heuristics)
	logger.InfoContext(ctx, "question classified",
		"mode", q.Mode,
		"target_pages", q.TargetPages,
		"summary", q.Summary,
	)

	passages, sel, err := e.selectPassages(ctx, q)
	if err != nil {
		logger.ErrorContext(ctx, "passage selection failed", "error", err)
		return AnswerResult{}, err
	}

	contextText := FormatContext(passages)
	compressed := false
	// The labelled context is replaced only when the compressor would actually
	// shrink the passage text.
	if e.compressor != nil && e.compressor.Exceeds(passages) {
		contextText = e.compressor.Compress(ctx, passages)
		compressed = true
		logger.DebugContext(ctx, "context compressed", "runes", utf8.RuneCountInString(contextText))
	}

	prompt := BuildPrompt(contextText, FormatNotes(req.Notes), req.Question)
	completion := e.generator.Generate(ctx, prompt)

	result := AnswerResult{
		Answer:         completion.Answer(),
		Sources:        BuildSources(passages),
		PageReferences: BuildPageReferences(passages),
	}

	if req.Debug {
		result.Debug = e.buildDebugInfo(q, sel, passages, compressed, completion)
	}

	logger.InfoContext(ctx, "question answered",
		"passages", len(passages),
		"page_references", len(result.PageReferences),
		"generation_ok", completion.OK(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Refine improves an earlier answer with extra context, returning initial on failure.
func (e *Engine) Refine(ctx context.Context, question, initial, extra string) string {
	return e.generator.Refine(ctx, question, initial, extra)
}

// selection carries counters for debug output.
type selection struct {
	fallback      bool
	retrieved     int
	citationHeavy int
}

// SelectPassages runs classification and selection without generating.
func (e *Engine) SelectPassages(ctx context.Context, question string) ([]Candidate, error) {
	passages, _, err := e.selectPassages(ctx, Classify(question, e.heuristics))
	return passages, err
}

func (e *Engine) selectPassages(ctx context.Context, q Query) ([]Candidate, selection, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var sel selection

	if q.Mode == ModePage {
		chunks := e.corpus.ByPages(q.TargetPages)
		if len(chunks) > 0 {
			out := make([]Candidate, len(chunks))
			for i, ch := range chunks {
				out[i] = Candidate{Chunk: ch, Origin: OriginPageMatch}
			}
			return out, sel, nil
		}

		// No chunk on the requested pages: plain similarity search on the
		// unmodified question, without filtering or page priority.
		logger.InfoContext(ctx, "no chunks on requested pages, falling back to semantic search", "target_pages", q.TargetPages)
		sel.fallback = true
		raw, err := e.retrieve(ctx, q.Question)
		if err != nil {
			return nil, sel, err
		}
		sel.retrieved = len(raw)
		return raw, sel, nil
	}

	raw, err := e.retrieve(ctx, q.RetrievalQuery)
	if err != nil {
		return nil, sel, err
	}
	sel.retrieved = len(raw)

	content, citation := PartitionCitations(raw, e.heuristics)
	sel.citationHeavy = len(citation)
	return RankCandidates(content, citation, raw, q.Summary, e.heuristics), sel, nil
}

func (e *Engine) retrieve(ctx context.Context, query string) ([]Candidate, error) {
	candidates, err := e.retriever.Retrieve(ctx, query, e.k)
	if err != nil {
		return nil, &RetrievalError{Query: query, Err: err}
	}
	return candidates, nil
}

func (e *Engine) buildDebugInfo(q Query, sel selection, passages []Candidate, compressed bool, completion Completion) *DebugInfo {
	info := &DebugInfo{
		Mode:          q.Mode,
		TargetPages:   q.TargetPages,
		Summary:       q.Summary,
		Fallback:      sel.fallback,
		Retrieved:     sel.retrieved,
		CitationHeavy: sel.citationHeavy,
		Compressed:    compressed,
		Selected:      make([]DebugCandidate, 0, len(passages)),
	}
	if q.Mode == ModeSemantic {
		info.RetrievalQuery = q.RetrievalQuery
	} else if sel.fallback {
		info.RetrievalQuery = q.Question
	}
	for i, p := range passages {
		info.Selected = append(info.Selected, DebugCandidate{
			Rank:         i + 1,
			ChunkID:      p.Chunk.ID,
			Page:         p.Chunk.Page,
			Origin:       p.Origin,
			Score:        p.Score,
			LexicalScore: lexicalOverlap(q.Question, p.Chunk.Text, p.Chunk.FirstLine),
		})
	}
	if !completion.OK() {
		info.Generation = &GenerationDetail{Error: completion.Err.Error()}
	}
	return info
}
