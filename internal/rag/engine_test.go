package rag_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"research-assistant/internal/corpus"
	"research-assistant/internal/rag"
	"research-assistant/internal/rag/mocks"
)

const citationText = "[1] Vaswani et al. [2] Bahdanau et al. [3] Gehring et al. [4] Kim et al."

func chunkIDs(sources []rag.Source) []int {
	out := make([]int, len(sources))
	for i, s := range sources {
		out[i] = s.ChunkID
	}
	return out
}

func semantic(chunks ...corpus.Chunk) []rag.Candidate {
	out := make([]rag.Candidate, len(chunks))
	for i, ch := range chunks {
		out[i] = rag.Candidate{Chunk: ch, Origin: rag.OriginSemantic, Score: 1 - float32(i)*0.01}
	}
	return out
}

func newEngine(t *testing.T, c *corpus.Corpus, retriever rag.Retriever, model rag.ChatModel, cfg rag.EngineConfig) *rag.Engine {
	t.Helper()
	engine, err := rag.NewEngine(c, retriever, model, cfg)
	if err != nil {
		t.Fatalf("NewEngine() unexpected error: %v", err)
	}
	return engine
}

func TestNewEngine_EmptyCorpus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := rag.NewEngine(corpus.New(nil), mocks.NewMockRetriever(ctrl), mocks.NewMockChatModel(ctrl), rag.EngineConfig{})
	if !errors.Is(err, rag.ErrEmptyCorpus) {
		t.Errorf("NewEngine() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestEngine_PageQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{
		{ID: 0, Page: 2, Ordinal: 0, Text: "Page two, first chunk.", FirstLine: "Page two, first chunk."},
		{ID: 1, Page: 2, Ordinal: 1, Text: "Page two, second chunk."},
		{ID: 2, Page: 5, Ordinal: 2, Text: "Page five."},
	})
	retriever := mocks.NewMockRetriever(ctrl) // must not be called
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "[Document 1 - Page 2]\nPage two, first chunk.") {
			t.Errorf("prompt missing first block: %q", prompt)
		}
		if strings.Contains(prompt, "Page five.") {
			t.Error("prompt contains chunk from another page")
		}
		return "Page 2 introduces the model (p. 2).", nil
	})

	engine := newEngine(t, c, retriever, model, rag.EngineConfig{})
	result, err := engine.ProcessQuestion(context.Background(), "What is on page 2?", nil)
	if err != nil {
		t.Fatalf("ProcessQuestion() unexpected error: %v", err)
	}

	if got := chunkIDs(result.Sources); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("sources = %v, want [0 1]", got)
	}
	if len(result.PageReferences) != 1 || result.PageReferences[0].Page != 2 || result.PageReferences[0].Text != "p.2" {
		t.Errorf("page references = %+v, want single p.2", result.PageReferences)
	}
	if result.Answer != "Page 2 introduces the model (p. 2)." {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Debug != nil {
		t.Error("debug info should be absent unless requested")
	}
}

func TestEngine_PageQueryMultiplePages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{
		{ID: 0, Page: 1, Ordinal: 0, Text: "one"},
		{ID: 1, Page: 3, Ordinal: 1, Text: "three"},
		{ID: 2, Page: 4, Ordinal: 2, Text: "four"},
		{ID: 3, Page: 3, Ordinal: 3, Text: "three again"},
	})
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("ok", nil)

	engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{})
	result, err := engine.ProcessQuestion(context.Background(), "Compare p. 4 and page 3", nil)
	if err != nil {
		t.Fatalf("ProcessQuestion() unexpected error: %v", err)
	}
	if got := chunkIDs(result.Sources); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("sources = %v, want ordinal order [1 2 3]", got)
	}
	if len(result.PageReferences) != 2 || result.PageReferences[0].Page != 3 || result.PageReferences[1].Page != 4 {
		t.Errorf("page references = %+v, want pages [3 4]", result.PageReferences)
	}
}

func TestEngine_PageQueryFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var chunks []corpus.Chunk
	for i := 0; i < 13; i++ {
		text := "content chunk"
		if i%3 == 0 {
			text = citationText
		}
		chunks = append(chunks, corpus.Chunk{ID: i, Page: 1 + i/4, Ordinal: i, Text: text})
	}
	c := corpus.New(chunks)

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), "What does page 40 say?", rag.DefaultRetrievalK).
		Return(semantic(chunks...), nil)
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("answer", nil)

	engine := newEngine(t, c, retriever, model, rag.EngineConfig{})
	result, err := engine.Answer(context.Background(), rag.Request{Question: "What does page 40 say?", Debug: true})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}

	// Raw results, unfiltered and in retrieval order.
	if len(result.Sources) != len(chunks) {
		t.Fatalf("len(sources) = %d, want %d", len(result.Sources), len(chunks))
	}
	for i, s := range result.Sources {
		if s.ChunkID != i {
			t.Errorf("sources[%d] = %d, want %d", i, s.ChunkID, i)
		}
	}
	if result.Debug == nil || !result.Debug.Fallback || result.Debug.Mode != rag.ModePage {
		t.Errorf("debug = %+v, want page mode with fallback", result.Debug)
	}
	for _, sel := range result.Debug.Selected {
		if sel.Origin != rag.OriginSemantic {
			t.Errorf("fallback candidate %d has origin %v", sel.ChunkID, sel.Origin)
		}
	}
}

func TestEngine_SummaryQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// 6 content chunks on pages 1-2, 4 on pages 4-6, 3 citation-heavy chunks.
	var chunks []corpus.Chunk
	id := 0
	add := func(page int, text string) corpus.Chunk {
		ch := corpus.Chunk{ID: id, Page: page, Ordinal: id, Text: text}
		chunks = append(chunks, ch)
		id++
		return ch
	}
	var late, early, cites []corpus.Chunk
	for i := 0; i < 4; i++ {
		late = append(late, add(4+i%3, "later section detail"))
	}
	for i := 0; i < 6; i++ {
		early = append(early, add(1+i%2, "abstract and introduction"))
	}
	for i := 0; i < 3; i++ {
		cites = append(cites, add(12, citationText))
	}
	c := corpus.New(chunks)

	// Retriever ranks late pages and citations above early content.
	var ranked []corpus.Chunk
	ranked = append(ranked, cites[0], late[0], late[1])
	ranked = append(ranked, early...)
	ranked = append(ranked, cites[1], late[2], late[3], cites[2])

	h := rag.DefaultHeuristics()
	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().
		Retrieve(gomock.Any(), "summarize the paper "+h.EnhancementTerms, rag.DefaultRetrievalK).
		Return(semantic(ranked...), nil)
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("A summary.", nil)

	engine := newEngine(t, c, retriever, model, rag.EngineConfig{})
	result, err := engine.Answer(context.Background(), rag.Request{Question: "summarize the paper", Debug: true})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}

	if len(result.Sources) > 10 {
		t.Fatalf("len(sources) = %d, want <= 10", len(result.Sources))
	}
	for i := 0; i < 5; i++ {
		if result.Sources[i].Page > 3 {
			t.Errorf("sources[%d] on page %d, want <= 3", i, result.Sources[i].Page)
		}
	}
	want := []int{early[0].ID, early[1].ID, early[2].ID, early[3].ID, early[4].ID, late[0].ID, late[1].ID, late[2].ID, cites[0].ID, cites[1].ID}
	if got := chunkIDs(result.Sources); !reflect.DeepEqual(got, want) {
		t.Errorf("sources = %v, want %v", got, want)
	}
	if !result.Debug.Summary || result.Debug.CitationHeavy != 3 || result.Debug.Retrieved != len(ranked) {
		t.Errorf("debug = %+v", result.Debug)
	}
	for i := 1; i < len(result.PageReferences); i++ {
		if result.PageReferences[i].Page <= result.PageReferences[i-1].Page {
			t.Errorf("page references not ascending: %+v", result.PageReferences)
		}
	}
}

func TestEngine_SemanticQueryFiltersCitations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var chunks []corpus.Chunk
	for i := 0; i < 15; i++ {
		text := "multi-head attention detail"
		if i < 4 {
			text = citationText
		}
		chunks = append(chunks, corpus.Chunk{ID: i, Page: 1 + i, Ordinal: i, Text: text})
	}
	c := corpus.New(chunks)

	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().Retrieve(gomock.Any(), "How does attention work?", 15).Return(semantic(chunks...), nil)
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("answer", nil)

	engine := newEngine(t, c, retriever, model, rag.EngineConfig{})
	result, err := engine.ProcessQuestion(context.Background(), "How does attention work?", nil)
	if err != nil {
		t.Fatalf("ProcessQuestion() unexpected error: %v", err)
	}
	want := []int{4, 5, 6, 7, 8, 9, 10, 11, 0, 1}
	if got := chunkIDs(result.Sources); !reflect.DeepEqual(got, want) {
		t.Errorf("sources = %v, want %v", got, want)
	}
}

func TestEngine_GenerationFailure(t *testing.T) {
	c := corpus.New([]corpus.Chunk{{ID: 0, Page: 1, Ordinal: 0, Text: "content"}})

	tests := []struct {
		name      string
		chat      func(context.Context, string) (string, error)
		wantInAns string
	}{
		{
			name: "error",
			chat: func(context.Context, string) (string, error) {
				return "", errors.New("model offline")
			},
			wantInAns: "Error generating response: model offline",
		},
		{
			name: "panic",
			chat: func(context.Context, string) (string, error) {
				panic("nil pointer in backend")
			},
			wantInAns: "nil pointer in backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			model := mocks.NewMockChatModel(ctrl)
			model.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(tt.chat)

			engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{})
			result, err := engine.Answer(context.Background(), rag.Request{Question: "page 1?", Debug: true})
			if err != nil {
				t.Fatalf("Answer() returned error %v, want degraded answer", err)
			}
			if !strings.Contains(result.Answer, tt.wantInAns) {
				t.Errorf("answer = %q, want it to contain %q", result.Answer, tt.wantInAns)
			}
			if len(result.Sources) != 1 || len(result.PageReferences) != 1 {
				t.Errorf("sources/page references not populated: %+v", result)
			}
			if result.Debug.Generation == nil {
				t.Error("debug should report the generation failure")
			}
		})
	}
}

func TestEngine_RetrievalFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{{ID: 0, Page: 1, Ordinal: 0, Text: "content"}})
	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	model := mocks.NewMockChatModel(ctrl) // must not be called

	engine := newEngine(t, c, retriever, model, rag.EngineConfig{})
	_, err := engine.ProcessQuestion(context.Background(), "What is the main idea?", nil)
	if err == nil {
		t.Fatal("ProcessQuestion() expected error, got nil")
	}
	if !errors.Is(err, rag.ErrRetrieval) {
		t.Errorf("errors.Is(err, ErrRetrieval) = false for %v", err)
	}
	var re *rag.RetrievalError
	if !errors.As(err, &re) || re.Query != "What is the main idea?" {
		t.Errorf("errors.As RetrievalError failed: %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should carry cause: %v", err)
	}
}

func TestEngine_SessionNotesInPrompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{{ID: 0, Page: 1, Ordinal: 0, Text: "content"}})
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Note on page 4: check table\nNote on page unknown: loose idea") {
			t.Errorf("notes not rendered: %q", prompt)
		}
		return "ok", nil
	})

	four := 4
	engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{})
	_, err := engine.ProcessQuestion(context.Background(), "What is on page 1?", []rag.SessionNote{
		{Page: &four, Content: "check table"},
		{Content: "loose idea"},
	})
	if err != nil {
		t.Fatalf("ProcessQuestion() unexpected error: %v", err)
	}
}

func TestEngine_ContextCompression(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{
		{ID: 0, Page: 1, Ordinal: 0, Text: strings.Repeat("alpha ", 20)},
		{ID: 1, Page: 1, Ordinal: 1, Text: strings.Repeat("beta ", 20)},
	})
	model := mocks.NewMockChatModel(ctrl)
	gomock.InOrder(
		model.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "Comprehensive Summary:") {
				t.Errorf("first call should summarize, got %q", prompt)
			}
			return "SHORT SUMMARY", nil
		}),
		model.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "SHORT SUMMARY") || strings.Contains(prompt, "[Document 1") {
				t.Errorf("answer prompt should use compressed context, got %q", prompt)
			}
			return "final", nil
		}),
	)

	engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{Compress: true, ContextBudget: 50})
	result, err := engine.Answer(context.Background(), rag.Request{Question: "page 1", Debug: true})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if result.Answer != "final" || !result.Debug.Compressed {
		t.Errorf("result = %+v", result)
	}
	if len(result.Sources) != 2 {
		t.Errorf("sources should still list selected passages, got %d", len(result.Sources))
	}
}

func TestEngine_ContextCompressionKeepsLabelsUnderBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Passage text is 42 runes; with the "[Document i - Page 7]" headers the
	// formatted context is well over the budget of 60.
	c := corpus.New([]corpus.Chunk{
		{ID: 0, Page: 7, Ordinal: 0, Text: strings.Repeat("a", 20)},
		{ID: 1, Page: 7, Ordinal: 1, Text: strings.Repeat("b", 20)},
	})
	if got := len(rag.FormatContext([]rag.Candidate{{Chunk: c.Chunks()[0]}, {Chunk: c.Chunks()[1]}})); got <= 60 {
		t.Fatalf("formatted context length = %d, want over 60", got)
	}

	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Comprehensive Summary:") {
			t.Errorf("no summary call expected, got %q", prompt)
		}
		for _, want := range []string{"[Document 1 - Page 7]", "[Document 2 - Page 7]"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("answer prompt missing %q", want)
			}
		}
		return "final", nil
	})

	engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{Compress: true, ContextBudget: 60})
	result, err := engine.Answer(context.Background(), rag.Request{Question: "page 7", Debug: true})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if result.Debug.Compressed {
		t.Error("Debug.Compressed = true, want false when passage text is within budget")
	}
}

func TestEngine_Refine(t *testing.T) {
	c := corpus.New([]corpus.Chunk{{ID: 0, Page: 1, Ordinal: 0, Text: "content"}})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		model := mocks.NewMockChatModel(ctrl)
		model.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "Initial Answer: draft") || !strings.Contains(prompt, "Additional Context: more") {
				t.Errorf("refine prompt = %q", prompt)
			}
			return "better", nil
		})
		engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{})
		if got := engine.Refine(context.Background(), "q", "draft", "more"); got != "better" {
			t.Errorf("Refine() = %q, want better", got)
		}
	})

	t.Run("failure keeps initial", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		model := mocks.NewMockChatModel(ctrl)
		model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))
		engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), model, rag.EngineConfig{})
		if got := engine.Refine(context.Background(), "q", "draft", "more"); got != "draft" {
			t.Errorf("Refine() = %q, want draft", got)
		}
	})
}

func TestEngine_ConcurrentQuestions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{
		{ID: 0, Page: 1, Ordinal: 0, Text: "one"},
		{ID: 1, Page: 2, Ordinal: 1, Text: "two"},
	})
	retriever := mocks.NewMockRetriever(ctrl)
	retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any()).Return(semantic(c.Chunks()...), nil).AnyTimes()
	model := mocks.NewMockChatModel(ctrl)
	model.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	engine := newEngine(t, c, retriever, model, rag.EngineConfig{})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := "explain the method"
			if i%2 == 0 {
				q = "what is on page 2"
			}
			if _, err := engine.ProcessQuestion(context.Background(), q, nil); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent ProcessQuestion() error: %v", err)
	}
	if engine.TotalDocuments() != 2 {
		t.Errorf("TotalDocuments() = %d, want 2", engine.TotalDocuments())
	}
}

func TestEngine_SelectPassages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := corpus.New([]corpus.Chunk{{ID: 0, Page: 3, Ordinal: 0, Text: "three"}})
	engine := newEngine(t, c, mocks.NewMockRetriever(ctrl), mocks.NewMockChatModel(ctrl), rag.EngineConfig{})

	passages, err := engine.SelectPassages(context.Background(), "page 3")
	if err != nil {
		t.Fatalf("SelectPassages() unexpected error: %v", err)
	}
	if len(passages) != 1 || passages[0].Origin != rag.OriginPageMatch {
		t.Errorf("passages = %+v, want one page match", passages)
	}
}
