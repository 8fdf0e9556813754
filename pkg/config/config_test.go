package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/excerpt/pkg/relevance"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("EXCERPT_LOG_LEVEL", "")
	t.Setenv("EXCERPT_STRATEGY", "")

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://ollama:11434"
  model: "qwen2.5"
  max_tokens: 1000
  temperature: 0.2
  json_mode: true

relevance:
  strategy: embedding
  algorithms: jaccard
  chunk_size: 500
  threshold: 0.15

embedding:
  threshold: 0.4
  degraded:
    fallback_chunks: 5

cache:
  ttl: 10m

loader:
  timeout: 5s

log:
  level: debug
  json: true
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "http://ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "qwen2.5", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.True(t, config.LLM.JSONMode)
	assert.Equal(t, "http://ollama:11434", config.Embedder.BaseURL, "embedder follows the llm host")
	assert.Equal(t, relevance.StrategyEmbedding, config.Relevance.Strategy)
	assert.Equal(t, 500, config.Relevance.ChunkSize)
	assert.Equal(t, 0.4, config.Embedding.Threshold)
	assert.Equal(t, 5, config.Embedding.Degraded.FallbackChunks)
	assert.Equal(t, 10*time.Minute, config.Cache.TTL)
	assert.Equal(t, 5*time.Second, config.Loader.Timeout)
	assert.Equal(t, "debug", config.Log.Level)

	// Unset values take defaults
	assert.Equal(t, 25, config.Relevance.MaxChunks)
	assert.Equal(t, relevance.DefaultCapSelected, config.Relevance.CapSelected)
	assert.Equal(t, 1000, config.Relevance.MinDocumentLength)
	assert.Equal(t, relevance.DefaultDegradedChunkSize, config.Embedding.Degraded.ChunkSize)
	assert.Equal(t, 30*time.Minute, config.Cache.SweepInterval)

	assert.Empty(t, config.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "error parsing config file")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	t.Setenv("EXCERPT_LOG_LEVEL", "warn")
	t.Setenv("EXCERPT_STRATEGY", "embedding")

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434", config.LLM.BaseURL)
	assert.Equal(t, "http://gpu-box:11434", config.Embedder.BaseURL)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, relevance.StrategyEmbedding, config.Relevance.Strategy)
}

func TestDefault(t *testing.T) {
	config := Default()
	assert.Empty(t, config.Validate())

	rcfg := config.Relevance.RankerConfig()
	assert.Equal(t, relevance.AlgorithmsBoth, rcfg.Algorithms)
	assert.Equal(t, 400, rcfg.ChunkSize)
	assert.Equal(t, 0.08, rcfg.Threshold)
	assert.Equal(t, 25, rcfg.MaxChunks)

	ecfg := config.Embedding.RankerConfig()
	assert.Equal(t, relevance.DefaultEmbeddingConfig(), ecfg)

	assert.Equal(t, time.Hour, config.Cache.CacheConfig().DefaultTTL)
	assert.Equal(t, 2.0, config.Loader.LoaderConfig().RateLimit)
	assert.Equal(t, "info", string(config.Log.LoggerConfig().Level))
	assert.Equal(t, config.LLM.Model, config.LLM.ChatConfig().Model)
	assert.Equal(t, 32, config.Embedder.EmbedderConfig().BatchSize)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedErrs  int
		errorMessages []string
	}{
		{
			name:         "valid config",
			mutate:       func(*Config) {},
			expectedErrs: 0,
		},
		{
			name: "invalid llm values",
			mutate: func(c *Config) {
				c.LLM.BaseURL = "localhost"
				c.LLM.MaxTokens = 10000
				c.LLM.Temperature = 1.5
			},
			expectedErrs: 3,
			errorMessages: []string{
				"llm.base_url: invalid Ollama base URL",
				"llm.max_tokens: max_tokens must be between 1 and 8192",
				"llm.temperature: temperature must be between 0 and 1",
			},
		},
		{
			name: "invalid relevance values",
			mutate: func(c *Config) {
				c.Relevance.Strategy = "vector"
				c.Relevance.Algorithms = "cosine"
				c.Relevance.Threshold = 1
			},
			expectedErrs: 3,
			errorMessages: []string{
				"relevance.threshold: threshold must be in [0, 1)",
			},
		},
		{
			name: "invalid embedding thresholds",
			mutate: func(c *Config) {
				c.Embedding.Threshold = -0.1
				c.Embedding.Degraded.Threshold = 2
			},
			expectedErrs: 2,
		},
		{
			name: "invalid runtime settings",
			mutate: func(c *Config) {
				c.Cache.TTL = -time.Second
				c.Loader.RateLimit = -1
				c.Log.Level = "verbose"
				c.Embedder.Concurrency = 0
			},
			expectedErrs: 4,
			errorMessages: []string{
				"log.level: invalid log level: verbose",
				"loader.rate_limit: rate_limit must be positive",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)

			errors := config.Validate()
			assert.Len(t, errors, tt.expectedErrs)

			messages := make([]string, len(errors))
			for i, err := range errors {
				messages[i] = err.Error()
			}
			for _, msg := range tt.errorMessages {
				assert.Contains(t, messages, msg)
			}
		})
	}
}
