package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaClient wraps a langchaingo Ollama model for chat and embeddings.
type OllamaClient struct {
	model        *ollama.LLM
	embedder     *embeddings.EmbedderImpl
	expectedSize int
}

// NewOllamaClient connects to an Ollama server at baseURL using model.
func NewOllamaClient(baseURL, model string, expectedSize int) (*OllamaClient, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
	}

	return &OllamaClient{
		model:        llm,
		embedder:     embedder,
		expectedSize: expectedSize,
	}, nil
}

// Chat implements ChatModel.
func (c *OllamaClient) Chat(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}
	return out, nil
}

// EmbedTexts implements Embedder.
func (c *OllamaClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding failed: %w", err)
	}

	if err := checkVectors(vectors, len(texts), c.expectedSize); err != nil {
		return nil, err
	}
	return vectors, nil
}
