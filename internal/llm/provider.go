package llm

import (
	"context"
	"fmt"

	"research-assistant/internal/config"
	"research-assistant/internal/contextutil"
)

// NewChatModel builds the chat backend selected by LLM_PROVIDER.
// With LLM_AUTOLOAD_MODEL set, llama.cpp models are loaded before first use.
func NewChatModel(ctx context.Context, cfg *config.Config) (ChatModel, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch cfg.LLMProvider {
	case config.ProviderLlamaCpp:
		if cfg.LLMAutoLoad {
			logger.InfoContext(ctx, "loading llm model", "model", cfg.LLMModelName, "url", cfg.LLMBaseURL)
			if err := NewModelLoader(cfg.LLMBaseURL).LoadModel(ctx, cfg.LLMModelName, nil); err != nil {
				return nil, fmt.Errorf("failed to load llm model: %w", err)
			}
		}
		return NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.LLMBaseURL, cfg.LLMModelName, 0)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.EmbeddingModelName, 0), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// NewEmbedder builds the embedding backend selected by EMBEDDING_PROVIDER.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	logger := contextutil.LoggerFromContext(ctx)
	size := cfg.EmbeddingVectorSize

	switch cfg.EmbeddingProvider {
	case config.ProviderLlamaCpp:
		if cfg.LLMAutoLoad {
			logger.InfoContext(ctx, "loading embedding model", "model", cfg.EmbeddingModelName, "url", cfg.EmbeddingBaseURL)
			if err := NewModelLoader(cfg.EmbeddingBaseURL).LoadModel(ctx, cfg.EmbeddingModelName, []string{"--embeddings"}); err != nil {
				return nil, fmt.Errorf("failed to load embedding model: %w", err)
			}
		}
		return NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, size), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModelName, size)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.EmbeddingModelName, size), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// ValidateEmbedder embeds a probe string and checks the vector size,
// so a misconfigured EMBEDDING_VECTOR_SIZE fails at startup instead of at first upload.
func ValidateEmbedder(ctx context.Context, e Embedder, size int) error {
	vectors, err := e.EmbedTexts(ctx, []string{"dimension probe"})
	if err != nil {
		return fmt.Errorf("failed to embed probe text: %w", err)
	}
	if err := checkVectors(vectors, 1, size); err != nil {
		return fmt.Errorf("embedding model mismatch: %w", err)
	}
	return nil
}
