package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks research-assistant/internal/llm Embedder

import (
	"context"
	"fmt"
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel completes a single user prompt.
type ChatModel interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// checkVectors validates count and dimension of an embedding response.
func checkVectors(vectors [][]float32, wantCount, wantSize int) error {
	if len(vectors) != wantCount {
		return fmt.Errorf("expected %d embeddings, got %d", wantCount, len(vectors))
	}
	if wantSize <= 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != wantSize {
			return fmt.Errorf("embedding %d has size %d, expected %d", i, len(v), wantSize)
		}
	}
	return nil
}
