package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"research-assistant/internal/config"
	"research-assistant/internal/corpus"
	"research-assistant/internal/ingest"
	"research-assistant/internal/llm"
	"research-assistant/internal/rag"
	"research-assistant/internal/session"
	"research-assistant/internal/vectorstore"
)

// app bundles the long-lived components shared by serve and ask.
type app struct {
	cfg      *config.Config
	sessions *session.Manager
}

// setupLogging installs the default slog logger from LOG_LEVEL and LOG_FORMAT.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)
	return logger
}

func newVectorStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStoreQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		slog.Info("Vector store ready", "backend", cfg.VectorStore, "url", cfg.QdrantURL)
		return store, nil
	default:
		slog.Info("Vector store ready", "backend", config.VectorStoreMemory)
		return vectorstore.NewMemoryStore(), nil
	}
}

// newApp connects providers, validates the embedder and builds the session manager.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	chatModel, err := llm.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	embedder, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	// Fail fast on a model whose output does not match the configured size.
	if err := llm.ValidateEmbedder(ctx, embedder, cfg.EmbeddingVectorSize); err != nil {
		return nil, fmt.Errorf("failed to validate embedding client: %w", err)
	}
	slog.Info("Embedding client validated", "provider", cfg.EmbeddingProvider, "vector_size", cfg.EmbeddingVectorSize)

	store, err := newVectorStore(cfg)
	if err != nil {
		return nil, err
	}

	pipeline, err := ingest.NewPipeline(embedder, store, ingest.Options{
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		BatchSize:      cfg.EmbedBatchSize,
		Concurrency:    cfg.EmbedConcurrency,
		VectorSize:     cfg.EmbeddingVectorSize,
		EmbeddingModel: cfg.EmbeddingModelName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest pipeline: %w", err)
	}

	engineCfg := rag.EngineConfig{
		K:             cfg.RetrievalK,
		ContextBudget: cfg.ContextBudget,
		Compress:      cfg.ContextCompression,
	}
	if cfg.HeuristicsFile != "" {
		h, err := rag.LoadHeuristics(cfg.HeuristicsFile)
		if err != nil {
			return nil, err
		}
		engineCfg.Heuristics = &h
		slog.Info("Selection heuristics loaded", "path", cfg.HeuristicsFile)
	}

	newEngine := func(c *corpus.Corpus, collection string) (*rag.Engine, error) {
		retriever := rag.NewVectorRetriever(embedder, store, collection, c)
		return rag.NewEngine(c, retriever, chatModel, engineCfg)
	}

	slog.Info("RAG engine configured",
		"llm_provider", cfg.LLMProvider,
		"model", cfg.LLMModelName,
		"k", engineCfg.K,
		"compression", engineCfg.Compress,
	)

	return &app{
		cfg:      cfg,
		sessions: session.NewManager(pipeline, store, newEngine, cfg.QdrantCollectionPrefix),
	}, nil
}
