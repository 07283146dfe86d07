package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/corpus"
	"research-assistant/internal/llm"
	"research-assistant/internal/vectorstore"
)

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	ChunkSize      int
	ChunkOverlap   int
	BatchSize      int
	Concurrency    int
	VectorSize     int
	EmbeddingModel string
}

// Pipeline loads a document, splits it into chunks, embeds them and stores the vectors.
type Pipeline struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	splitter    *Splitter
	opts        Options
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedder llm.Embedder, vectorStore vectorstore.VectorStore, opts Options) (*Pipeline, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.VectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}

	splitter, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		splitter:    splitter,
		opts:        opts,
	}, nil
}

// Ingest loads the file at path and indexes it into collection.
// The returned corpus holds exactly the chunks that were indexed.
func (p *Pipeline) Ingest(ctx context.Context, path, collection string) (*corpus.Corpus, Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if !Supported(path) {
		return nil, Stats{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	pages, err := LoadPages(path)
	if err != nil {
		return nil, Stats{}, err
	}

	chunks, err := p.splitter.Split(pages)
	if err != nil {
		return nil, Stats{}, err
	}
	if len(chunks) == 0 {
		return nil, Stats{}, ErrNoText
	}

	if err := p.Index(ctx, collection, chunks); err != nil {
		return nil, Stats{}, err
	}

	c := corpus.New(chunks)
	stats := computeStats(c.Pages(), chunks, p.opts.EmbeddingModel, p.opts.ChunkSize, p.opts.ChunkOverlap)

	logger.InfoContext(ctx, "document ingested",
		"file", filepath.Base(path),
		"collection", collection,
		"pages", stats.Pages,
		"chunks", stats.Chunks,
		"index_version", stats.IndexVersion,
	)
	return c, stats, nil
}

// Index embeds chunks in batches and upserts them into collection.
// Batches are embedded concurrently, bounded by Options.Concurrency.
func (p *Pipeline) Index(ctx context.Context, collection string, chunks []corpus.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.vectorStore.EnsureCollection(ctx, collection, p.opts.VectorSize); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for start := 0; start < len(chunks); start += p.opts.BatchSize {
		end := min(start+p.opts.BatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}

			batch, err := p.embedder.EmbedTexts(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(batch))
			}
			copy(vectors[start:end], batch)

			logger.DebugContext(gctx, "embedded batch", "start", start, "end", end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:  c.ID,
			Vec: vectors[i],
			Meta: map[string]any{
				"page":         c.Page,
				"first_line":   c.FirstLine,
				"total_chunks": c.TotalChunks,
				"text":         c.Text,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}
	return nil
}
