package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"research-assistant/internal/contextutil"
)

// MemoryStore implements VectorStore with an in-process chromem database.
// Nothing is persisted; collections live as long as the process.
type MemoryStore struct {
	db *chromem.DB

	mu    sync.Mutex
	sizes map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		db:    chromem.NewDB(),
		sizes: make(map[string]int),
	}
}

// Vectors are always computed by the caller; chromem must never embed on its own.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("memory store requires precomputed embeddings")
}

// EnsureCollection creates the collection or validates its vector size.
func (s *MemoryStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if size, ok := s.sizes[collection]; ok {
		if size != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, size)
		}
		return nil
	}

	meta := map[string]string{"vector_size": strconv.Itoa(vectorSize)}
	if _, err := s.db.GetOrCreateCollection(collection, meta, noEmbedding); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	s.sizes[collection] = vectorSize

	logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
	return nil
}

func (s *MemoryStore) collection(name string) (*chromem.Collection, int, error) {
	s.mu.Lock()
	size, ok := s.sizes[name]
	s.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("collection %q does not exist", name)
	}

	c := s.db.GetCollection(name, noEmbedding)
	if c == nil {
		return nil, 0, fmt.Errorf("collection %q does not exist", name)
	}
	return c, size, nil
}

// Upsert inserts or updates points in the collection.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	c, size, err := s.collection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, point := range points {
		if len(point.Vec) != size {
			return fmt.Errorf("point %d has vector size %d, expected %d", point.ID, len(point.Vec), size)
		}
		meta := make(map[string]string, len(point.Meta))
		for k, v := range point.Meta {
			meta[k] = fmt.Sprint(v)
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(point.ID),
			Metadata:  meta,
			Embedding: point.Vec,
			Content:   meta["text"],
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search returns up to k nearest points by cosine similarity.
func (s *MemoryStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, size, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	if len(query) != size {
		return nil, fmt.Errorf("query vector size %d, expected %d", len(query), size)
	}

	// chromem rejects requests for more results than documents.
	n := min(k, c.Count())
	if n == 0 {
		return []SearchResult{}, nil
	}

	hits, err := c.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			logger.WarnContext(ctx, "skipping point with non-numeric id", "collection", collection, "id", hit.ID)
			continue
		}
		meta := make(map[string]any, len(hit.Metadata))
		for k, v := range hit.Metadata {
			meta[k] = v
		}
		results = append(results, SearchResult{
			ChunkID: id,
			Score:   hit.Similarity,
			Meta:    meta,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// DeleteCollection drops the collection. Missing collections are not an error.
func (s *MemoryStore) DeleteCollection(ctx context.Context, collection string) error {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sizes[collection]; !ok {
		return nil
	}
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	delete(s.sizes, collection)

	logger.InfoContext(ctx, "collection deleted", "collection", collection)
	return nil
}
