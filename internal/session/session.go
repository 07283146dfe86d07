// Package session owns the single active document and its question-answering engine.
package session

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingestor.go -package=mocks research-assistant/internal/session Ingestor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/corpus"
	"research-assistant/internal/ingest"
	"research-assistant/internal/rag"
	"research-assistant/internal/vectorstore"
)

// ErrNoDocument is returned when no document has been uploaded yet.
var ErrNoDocument = errors.New("no document has been uploaded yet")

// Ingestor indexes a file into a collection and returns its corpus.
type Ingestor interface {
	Ingest(ctx context.Context, path, collection string) (*corpus.Corpus, ingest.Stats, error)
}

// EngineFactory builds the engine for a freshly indexed corpus.
type EngineFactory func(c *corpus.Corpus, collection string) (*rag.Engine, error)

// Session is one uploaded document with its index and engine.
type Session struct {
	ID         string
	Filename   string
	Path       string
	Collection string
	Corpus     *corpus.Corpus
	Engine     *rag.Engine
	Stats      ingest.Stats
	CreatedAt  time.Time

	mu     sync.RWMutex
	closed bool
}

// Status is a snapshot of the manager for the status endpoint.
type Status struct {
	SessionLoaded     bool          `json:"session_loaded"`
	VectorStoreLoaded bool          `json:"vector_store_loaded"`
	CurrentDocument   string        `json:"current_document,omitempty"`
	SessionID         string        `json:"session_id,omitempty"`
	TotalDocuments    int           `json:"total_documents"`
	Pages             int           `json:"pages"`
	ChunkStats        *ingest.Stats `json:"chunk_stats,omitempty"`
}

// Manager holds the active session. Questions read it concurrently;
// uploads replace it one at a time.
type Manager struct {
	ingestor  Ingestor
	store     vectorstore.VectorStore
	newEngine EngineFactory
	prefix    string

	current  atomic.Pointer[Session]
	uploadMu sync.Mutex
}

// NewManager creates a manager with no active session.
// Collections are named "<prefix>_<session id>".
func NewManager(ingestor Ingestor, store vectorstore.VectorStore, newEngine EngineFactory, prefix string) *Manager {
	return &Manager{
		ingestor:  ingestor,
		store:     store,
		newEngine: newEngine,
		prefix:    prefix,
	}
}

// Acquire returns the active session and a release func that must be called
// when the caller is done with it. The session is not torn down before release.
func (m *Manager) Acquire() (*Session, func(), error) {
	for {
		s := m.current.Load()
		if s == nil {
			return nil, nil, ErrNoDocument
		}
		s.mu.RLock()
		if s.closed {
			// Replaced between Load and RLock; the pointer already holds its successor.
			s.mu.RUnlock()
			continue
		}
		return s, s.mu.RUnlock, nil
	}
}

// Replace ingests the file at path into a new session and makes it active.
// When dest is set, path is a staged copy that is moved to dest only once the
// new session is ready. On failure the previous session stays active and
// untouched, including the file it was built from.
func (m *Manager) Replace(ctx context.Context, filename, path, dest string) (*Session, error) {
	logger := contextutil.LoggerFromContext(ctx)

	m.uploadMu.Lock()
	defer m.uploadMu.Unlock()

	id := uuid.New().String()
	collection := fmt.Sprintf("%s_%s", m.prefix, id)

	c, stats, err := m.ingestor.Ingest(ctx, path, collection)
	if err != nil {
		m.dropCollection(ctx, collection)
		return nil, fmt.Errorf("failed to ingest %s: %w", filename, err)
	}

	engine, err := m.newEngine(c, collection)
	if err != nil {
		m.dropCollection(ctx, collection)
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	if dest != "" && dest != path {
		if err := os.Rename(path, dest); err != nil {
			m.dropCollection(ctx, collection)
			return nil, fmt.Errorf("failed to move %s into place: %w", filename, err)
		}
		path = dest
	}

	s := &Session{
		ID:         id,
		Filename:   filename,
		Path:       path,
		Collection: collection,
		Corpus:     c,
		Engine:     engine,
		Stats:      stats,
		CreatedAt:  time.Now(),
	}

	if old := m.current.Swap(s); old != nil {
		m.teardown(ctx, old)
	}

	logger.InfoContext(ctx, "session replaced", "session_id", id, "file", filename, "chunks", c.Len())
	return s, nil
}

// Close tears down the active session, if any.
func (m *Manager) Close(ctx context.Context) {
	m.uploadMu.Lock()
	defer m.uploadMu.Unlock()

	if old := m.current.Swap(nil); old != nil {
		m.teardown(ctx, old)
	}
}

// Status reports the active session.
func (m *Manager) Status() Status {
	s, release, err := m.Acquire()
	if err != nil {
		return Status{}
	}
	defer release()

	stats := s.Stats
	return Status{
		SessionLoaded:     true,
		VectorStoreLoaded: true,
		CurrentDocument:   s.Filename,
		SessionID:         s.ID,
		TotalDocuments:    s.Engine.TotalDocuments(),
		Pages:             s.Corpus.Pages(),
		ChunkStats:        &stats,
	}
}

// teardown waits for in-flight readers, then drops the session's collection.
func (m *Manager) teardown(ctx context.Context, s *Session) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	m.dropCollection(ctx, s.Collection)
}

func (m *Manager) dropCollection(ctx context.Context, collection string) {
	logger := contextutil.LoggerFromContext(ctx)
	if err := m.store.DeleteCollection(ctx, collection); err != nil {
		logger.WarnContext(ctx, "failed to delete collection", "collection", collection, "error", err)
	}
}
