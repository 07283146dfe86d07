package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER and EMBEDDING_PROVIDER.
const (
	ProviderOllama   = "ollama"
	ProviderLlamaCpp = "llamacpp"
	ProviderOpenAI   = "openai"
)

// Vector store backends accepted by VECTOR_STORE.
const (
	VectorStoreMemory = "memory"
	VectorStoreQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	LLMProvider  string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string
	LLMAutoLoad  bool

	EmbeddingProvider   string
	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int

	VectorStore            string
	QdrantURL              string
	QdrantCollectionPrefix string

	UploadDir      string
	MaxUploadBytes int64

	ChunkSize        int
	ChunkOverlap     int
	EmbedBatchSize   int
	EmbedConcurrency int

	RetrievalK         int
	ContextBudget      int
	ContextCompression bool
	HeuristicsFile     string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or one of its parents, it is loaded first;
// variables already present in the environment take precedence over .env values.
func Load() (*Config, error) {
	loadDotEnv()

	llmProvider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama))
	if !validProvider(llmProvider) {
		return nil, fmt.Errorf("LLM_PROVIDER must be one of %s, %s, %s: got %q", ProviderOllama, ProviderLlamaCpp, ProviderOpenAI, llmProvider)
	}
	embeddingProvider := strings.ToLower(getEnv("EMBEDDING_PROVIDER", llmProvider))
	if !validProvider(embeddingProvider) {
		return nil, fmt.Errorf("EMBEDDING_PROVIDER must be one of %s, %s, %s: got %q", ProviderOllama, ProviderLlamaCpp, ProviderOpenAI, embeddingProvider)
	}

	llmBaseURL := getEnv("LLM_BASE_URL", defaultBaseURL(llmProvider, false))
	embeddingBaseURL := defaultBaseURL(embeddingProvider, true)
	if embeddingProvider == llmProvider && embeddingProvider != ProviderLlamaCpp {
		// Ollama and OpenAI serve chat and embeddings from one endpoint.
		embeddingBaseURL = llmBaseURL
	}

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "8000"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		LLMProvider:  llmProvider,
		LLMBaseURL:   llmBaseURL,
		LLMModelName: getEnv("LLM_MODEL", "gemma2:2b"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),

		EmbeddingProvider:  embeddingProvider,
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", embeddingBaseURL),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "nomic-embed-text"),

		VectorStore:            strings.ToLower(getEnv("VECTOR_STORE", VectorStoreMemory)),
		QdrantURL:              getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollectionPrefix: getEnv("QDRANT_COLLECTION_PREFIX", "documents"),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		HeuristicsFile: getEnv("HEURISTICS_FILE", ""),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json: got %q", cfg.LogFormat)
	}

	if cfg.VectorStore != VectorStoreMemory && cfg.VectorStore != VectorStoreQdrant {
		return nil, fmt.Errorf("VECTOR_STORE must be %s or %s: got %q", VectorStoreMemory, VectorStoreQdrant, cfg.VectorStore)
	}

	if cfg.LLMProvider == ProviderOpenAI || cfg.EmbeddingProvider == ProviderOpenAI {
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for the %s provider", ProviderOpenAI)
		}
	}

	if cfg.LLMAutoLoad, err = getEnvBool("LLM_AUTOLOAD_MODEL", false); err != nil {
		return nil, err
	}
	if cfg.ContextCompression, err = getEnvBool("CONTEXT_COMPRESSION", false); err != nil {
		return nil, err
	}

	// Note: EMBEDDING_VECTOR_SIZE must match the output size of the embedding model.
	// nomic-embed-text produces 768 dimensions; text-embedding-3-small produces 1536.
	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"EMBEDDING_VECTOR_SIZE", 768, &cfg.EmbeddingVectorSize},
		{"CHUNK_SIZE", 400, &cfg.ChunkSize},
		{"CHUNK_OVERLAP", 100, &cfg.ChunkOverlap},
		{"EMBED_BATCH_SIZE", 16, &cfg.EmbedBatchSize},
		{"EMBED_CONCURRENCY", 4, &cfg.EmbedConcurrency},
		{"RETRIEVAL_K", 15, &cfg.RetrievalK},
		{"CONTEXT_BUDGET", 4000, &cfg.ContextBudget},
	}
	for _, field := range ints {
		v, err := getEnvInt(field.key, field.def)
		if err != nil {
			return nil, err
		}
		if v <= 0 && field.key != "CHUNK_OVERLAP" {
			return nil, fmt.Errorf("%s must be greater than 0", field.key)
		}
		*field.dst = v
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE-1: got %d", cfg.ChunkOverlap)
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 50)
	if err != nil {
		return nil, err
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads .env from the working directory, then from the nearest parent that has one.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func validProvider(p string) bool {
	switch p {
	case ProviderOllama, ProviderLlamaCpp, ProviderOpenAI:
		return true
	}
	return false
}

// defaultBaseURL returns the conventional local endpoint for a provider.
// llama.cpp runs chat and embeddings as two servers.
func defaultBaseURL(provider string, embeddings bool) string {
	switch provider {
	case ProviderLlamaCpp:
		if embeddings {
			return "http://localhost:8081"
		}
		return "http://localhost:8080"
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	default:
		return "http://localhost:11434"
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}
