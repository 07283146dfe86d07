package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks research-assistant/internal/vectorstore VectorStore

import "context"

// Point is one embedded chunk. ID is the chunk's corpus identifier.
type Point struct {
	ID   int
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	ChunkID int
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
// Each uploaded document gets its own collection.
type VectorStore interface {
	// EnsureCollection creates the collection or validates its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k nearest points, most similar first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// DeleteCollection drops the collection and all of its points.
	DeleteCollection(ctx context.Context, collection string) error
}
