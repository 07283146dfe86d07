package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks research-assistant/internal/rag Retriever

import (
	"context"
	"fmt"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/corpus"
	"research-assistant/internal/llm"
	"research-assistant/internal/vectorstore"
)

// DefaultRetrievalK is the over-fetch size used for every semantic query.
const DefaultRetrievalK = 15

// Retriever returns up to k candidates ranked most to least similar.
// Implementations must be deterministic for a fixed index and query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Candidate, error)
}

// VectorRetriever embeds the query and searches one vector store collection,
// resolving hits back to corpus chunks.
type VectorRetriever struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	corpus      *corpus.Corpus
}

// NewVectorRetriever creates a VectorRetriever over an indexed corpus.
func NewVectorRetriever(embedder llm.Embedder, vectorStore vectorstore.VectorStore, collection string, c *corpus.Corpus) *VectorRetriever {
	return &VectorRetriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		corpus:      c,
	}
}

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	hits, err := r.vectorStore.Search(ctx, r.collection, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := r.corpus.Get(hit.ChunkID)
		if !ok {
			logger.WarnContext(ctx, "search hit not in corpus", "chunk_id", hit.ChunkID, "collection", r.collection)
			continue
		}
		candidates = append(candidates, Candidate{
			Chunk:  chunk,
			Origin: OriginSemantic,
			Score:  hit.Score,
		})
	}

	logger.DebugContext(ctx, "retrieved candidates", "k", k, "hits", len(hits), "candidates", len(candidates))
	return candidates, nil
}
