package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultEmbeddingModel = "nomic-embed-text:latest"
	DefaultBaseURL        = "http://localhost:11434"
)

// EmbedderConfig represents the configuration for an embedding backend.
type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
	// BatchSize is the number of texts sent per backend request.
	BatchSize int
	// Concurrency bounds the number of batches in flight.
	Concurrency int
	// RequestsPerSecond limits backend requests. Zero disables the limit.
	RequestsPerSecond float64
	StripNewLines     bool
}

// Embedder batches texts, spreads the batches over a bounded number of
// concurrent requests and rate limits every request.
type Embedder struct {
	config  EmbedderConfig
	impl    embeddings.Embedder
	limiter *rate.Limiter
}

func (c EmbedderConfig) withDefaults() EmbedderConfig {
	if c.Model == "" {
		c.Model = DefaultEmbeddingModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.RequestsPerSecond < 0 {
		c.RequestsPerSecond = 0
	}
	return c
}

// NewEmbedderWithConfig connects to an Ollama embedding model.
func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	config = config.withDefaults()

	client, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	impl, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(config.BatchSize),
		embeddings.WithStripNewLines(config.StripNewLines),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return WrapEmbedder(impl, config)
}

// WrapEmbedder applies batching and rate limiting to an existing langchaingo
// embedder.
func WrapEmbedder(impl embeddings.Embedder, config EmbedderConfig) (*Embedder, error) {
	if impl == nil {
		return nil, errors.New("embedder implementation is required")
	}
	config = config.withDefaults()

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	return &Embedder{
		config:  config,
		impl:    impl,
		limiter: rate.NewLimiter(limit, config.Concurrency),
	}, nil
}

func (e *Embedder) Config() EmbedderConfig { return e.config }

// EmbedDocuments returns one vector per text, in input order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := min(start+e.config.BatchSize, len(texts))
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return fmt.Errorf("failed to wait for rate limiter: %w", err)
			}
			batch, err := e.impl.EmbedDocuments(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("failed to embed batch %d-%d: got %d vectors", start, end, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}
