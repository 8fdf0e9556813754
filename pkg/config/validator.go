package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xhad/excerpt/pkg/logger"
	"github.com/xhad/excerpt/pkg/relevance"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	// Validate Embedder config
	if c.Embedder.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Embedder.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Embedder.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "embedder.requests_per_second",
			Message: "requests_per_second must not be negative",
		})
	}

	// Validate Relevance config
	switch c.Relevance.Strategy {
	case relevance.StrategyLocal, relevance.StrategyEmbedding:
	default:
		errors = append(errors, ValidationError{
			Field:   "relevance.strategy",
			Message: fmt.Sprintf("unknown strategy %q, expected %s or %s", c.Relevance.Strategy, relevance.StrategyLocal, relevance.StrategyEmbedding),
		})
	}

	if _, err := relevance.ParseAlgorithmSet(c.Relevance.Algorithms); err != nil {
		errors = append(errors, ValidationError{
			Field:   "relevance.algorithms",
			Message: err.Error(),
		})
	}

	if c.Relevance.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "relevance.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Relevance.Threshold < 0 || c.Relevance.Threshold >= 1 {
		errors = append(errors, ValidationError{
			Field:   "relevance.threshold",
			Message: "threshold must be in [0, 1)",
		})
	}

	if c.Relevance.MaxChunks < 1 {
		errors = append(errors, ValidationError{
			Field:   "relevance.max_chunks",
			Message: "max_chunks must be positive",
		})
	}

	if c.Relevance.CapSelected < 1 {
		errors = append(errors, ValidationError{
			Field:   "relevance.cap_selected",
			Message: "cap_selected must be positive",
		})
	}

	if c.Relevance.MinDocumentLength < 0 {
		errors = append(errors, ValidationError{
			Field:   "relevance.min_document_length",
			Message: "min_document_length must not be negative",
		})
	}

	// Validate Embedding config
	if c.Embedding.ChunkSize < 1 || c.Embedding.Degraded.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.chunk_size",
			Message: "chunk sizes must be positive",
		})
	}

	if c.Embedding.MaxChunks < 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.max_chunks",
			Message: "max_chunks must not be negative",
		})
	}

	for field, threshold := range map[string]float64{
		"embedding.threshold":          c.Embedding.Threshold,
		"embedding.degraded.threshold": c.Embedding.Degraded.Threshold,
	} {
		if threshold < 0 || threshold >= 1 {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "threshold must be in [0, 1)",
			})
		}
	}

	if c.Embedding.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.concurrency",
			Message: "concurrency must be positive",
		})
	}

	// Validate Cache config
	if c.Cache.TTL <= 0 || c.Cache.SweepInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.ttl",
			Message: "ttl and sweep_interval must be positive",
		})
	}

	// Validate Loader config
	if c.Loader.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "loader.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Log config
	switch logger.LogLevel(strings.ToLower(c.Log.Level)) {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid log level: %s", c.Log.Level),
		})
	}

	return errors
}
