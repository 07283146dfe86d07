package handlers

import (
	"context"
	"os"
	"testing"

	"go.uber.org/mock/gomock"

	"research-assistant/internal/corpus"
	"research-assistant/internal/rag"
	ragmocks "research-assistant/internal/rag/mocks"
	"research-assistant/internal/session"
)

// fakeSessions is an in-memory Sessions with a fixed active session.
// Like session.Manager, a successful Replace moves the staged file to dest.
type fakeSessions struct {
	active     *session.Session
	replaceErr error
	staged     []string
	acquired   int
	released   int
}

func (f *fakeSessions) Acquire() (*session.Session, func(), error) {
	if f.active == nil {
		return nil, nil, session.ErrNoDocument
	}
	f.acquired++
	return f.active, func() { f.released++ }, nil
}

func (f *fakeSessions) Replace(_ context.Context, filename, path, dest string) (*session.Session, error) {
	f.staged = append(f.staged, path)
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	if err := os.Rename(path, dest); err != nil {
		return nil, err
	}
	c := corpus.New([]corpus.Chunk{{ID: 0, Page: 1, Text: "uploaded"}})
	f.active = &session.Session{ID: "session-2", Filename: filename, Path: dest, Corpus: c}
	return f.active, nil
}

func (f *fakeSessions) Status() session.Status {
	if f.active == nil {
		return session.Status{}
	}
	return session.Status{
		SessionLoaded:     true,
		VectorStoreLoaded: true,
		CurrentDocument:   f.active.Filename,
		SessionID:         f.active.ID,
		TotalDocuments:    f.active.Corpus.Len(),
		Pages:             f.active.Corpus.Pages(),
	}
}

// paperCorpus has two chunks on page 1, one on page 2 and one on page 3.
func paperCorpus() *corpus.Corpus {
	return corpus.New([]corpus.Chunk{
		{ID: 0, Ordinal: 0, Page: 1, Text: "Abstract. We study retrieval.", FirstLine: "Abstract. We study retrieval."},
		{ID: 1, Ordinal: 1, Page: 1, Text: "Introduction text.", FirstLine: "Introduction text."},
		{ID: 2, Ordinal: 2, Page: 2, Text: "Methods: we embed chunks.", FirstLine: "Methods: we embed chunks."},
		{ID: 3, Ordinal: 3, Page: 3, Text: "Results improve recall.", FirstLine: "Results improve recall."},
	})
}

// newTestSessions builds an active session over paperCorpus backed by mocks.
func newTestSessions(t *testing.T, ctrl *gomock.Controller) (*fakeSessions, *ragmocks.MockRetriever, *ragmocks.MockChatModel) {
	t.Helper()

	retriever := ragmocks.NewMockRetriever(ctrl)
	model := ragmocks.NewMockChatModel(ctrl)
	c := paperCorpus()

	engine, err := rag.NewEngine(c, retriever, model, rag.EngineConfig{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	return &fakeSessions{
		active: &session.Session{
			ID:         "session-1",
			Filename:   "paper.pdf",
			Collection: "documents_session-1",
			Corpus:     c,
			Engine:     engine,
		},
	}, retriever, model
}
