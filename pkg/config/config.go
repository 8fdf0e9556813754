package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xhad/excerpt/pkg/cache"
	"github.com/xhad/excerpt/pkg/llm"
	"github.com/xhad/excerpt/pkg/loader"
	"github.com/xhad/excerpt/pkg/logger"
	"github.com/xhad/excerpt/pkg/relevance"
)

type Config struct {
	LLM       LLM       `yaml:"llm"`
	Embedder  Embedder  `yaml:"embedder"`
	Relevance Relevance `yaml:"relevance"`
	Embedding Embedding `yaml:"embedding"`
	Cache     Cache     `yaml:"cache"`
	Loader    Loader    `yaml:"loader"`
	Log       Log       `yaml:"log"`
}

type LLM struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	JSONMode    bool    `yaml:"json_mode"`
}

type Embedder struct {
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	BatchSize         int     `yaml:"batch_size"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type Relevance struct {
	Strategy   string  `yaml:"strategy"`
	Algorithms string  `yaml:"algorithms"`
	ChunkSize  int     `yaml:"chunk_size"`
	Threshold  float64 `yaml:"threshold"`
	MaxChunks  int     `yaml:"max_chunks"`
	// CapSelected bounds how many excerpts reach the model.
	CapSelected int `yaml:"cap_selected"`
	// MinDocumentLength is the length, in characters, above which a document
	// is reduced before extraction.
	MinDocumentLength int `yaml:"min_document_length"`
}

type Embedding struct {
	ChunkSize      int      `yaml:"chunk_size"`
	MaxChunks      int      `yaml:"max_chunks"`
	Threshold      float64  `yaml:"threshold"`
	FallbackChunks int      `yaml:"fallback_chunks"`
	Concurrency    int      `yaml:"concurrency"`
	Degraded       Degraded `yaml:"degraded"`
}

type Degraded struct {
	ChunkSize      int     `yaml:"chunk_size"`
	MaxChunks      int     `yaml:"max_chunks"`
	Threshold      float64 `yaml:"threshold"`
	FallbackChunks int     `yaml:"fallback_chunks"`
}

type Cache struct {
	Disabled      bool          `yaml:"disabled"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type Loader struct {
	RateLimit float64       `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
}

type Log struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Source bool   `yaml:"source"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"excerpt.yaml",
			"excerpt.yml",
			"config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/excerpt/config.yaml"),
			"/etc/excerpt/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

// Default returns the built-in configuration without environment overrides.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = llm.DefaultChatModel
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = llm.DefaultBaseURL
	}

	if config.Embedder.Model == "" {
		config.Embedder.Model = llm.DefaultEmbeddingModel
	}
	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = config.LLM.BaseURL
	}
	if config.Embedder.BatchSize == 0 {
		config.Embedder.BatchSize = 32
	}
	if config.Embedder.Concurrency == 0 {
		config.Embedder.Concurrency = 4
	}

	if config.Relevance.Strategy == "" {
		config.Relevance.Strategy = relevance.StrategyLocal
	}
	if config.Relevance.Algorithms == "" {
		config.Relevance.Algorithms = string(relevance.AlgorithmsBoth)
	}
	if config.Relevance.ChunkSize == 0 {
		config.Relevance.ChunkSize = relevance.DefaultChunkSize
	}
	if config.Relevance.Threshold == 0 {
		config.Relevance.Threshold = 0.08
	}
	if config.Relevance.MaxChunks == 0 {
		config.Relevance.MaxChunks = 25
	}
	if config.Relevance.CapSelected == 0 {
		config.Relevance.CapSelected = relevance.DefaultCapSelected
	}
	if config.Relevance.MinDocumentLength == 0 {
		config.Relevance.MinDocumentLength = 1000
	}

	if config.Embedding.ChunkSize == 0 {
		config.Embedding.ChunkSize = relevance.DefaultEmbeddingChunkSize
	}
	if config.Embedding.Threshold == 0 {
		config.Embedding.Threshold = relevance.DefaultEmbeddingThreshold
	}
	if config.Embedding.FallbackChunks == 0 {
		config.Embedding.FallbackChunks = relevance.DefaultEmbeddingFallback
	}
	if config.Embedding.Concurrency == 0 {
		config.Embedding.Concurrency = relevance.DefaultKeyConcurrency
	}
	if config.Embedding.Degraded.ChunkSize == 0 {
		config.Embedding.Degraded.ChunkSize = relevance.DefaultDegradedChunkSize
	}
	if config.Embedding.Degraded.MaxChunks == 0 {
		config.Embedding.Degraded.MaxChunks = relevance.DefaultDegradedMaxChunks
	}
	if config.Embedding.Degraded.Threshold == 0 {
		config.Embedding.Degraded.Threshold = relevance.DefaultDegradedThreshold
	}
	if config.Embedding.Degraded.FallbackChunks == 0 {
		config.Embedding.Degraded.FallbackChunks = relevance.DefaultDegradedFallback
	}

	if config.Cache.TTL == 0 {
		config.Cache.TTL = cache.DefaultTTL
	}
	if config.Cache.SweepInterval == 0 {
		config.Cache.SweepInterval = cache.DefaultSweepInterval
	}

	if config.Loader.RateLimit == 0 {
		config.Loader.RateLimit = 2.0
	}
	if config.Loader.Timeout == 0 {
		config.Loader.Timeout = 30 * time.Second
	}
	if config.Loader.MaxBytes == 0 {
		config.Loader.MaxBytes = 20 << 20
	}

	if config.Log.Level == "" {
		config.Log.Level = string(logger.InfoLevel)
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
		config.Embedder.BaseURL = baseURL
	}
	if level := os.Getenv("EXCERPT_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if strategy := os.Getenv("EXCERPT_STRATEGY"); strategy != "" {
		config.Relevance.Strategy = strategy
	}
}

func (c LLM) ChatConfig() llm.ChatConfig {
	return llm.ChatConfig{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		BaseURL:     c.BaseURL,
		JSONMode:    c.JSONMode,
	}
}

func (c Embedder) EmbedderConfig() llm.EmbedderConfig {
	return llm.EmbedderConfig{
		Model:             c.Model,
		BaseURL:           c.BaseURL,
		BatchSize:         c.BatchSize,
		Concurrency:       c.Concurrency,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// RankerConfig assumes Validate accepted the algorithm set.
func (c Relevance) RankerConfig() relevance.Config {
	algorithms, _ := relevance.ParseAlgorithmSet(c.Algorithms)
	return relevance.Config{
		Algorithms:  algorithms,
		ChunkSize:   c.ChunkSize,
		Threshold:   c.Threshold,
		MaxChunks:   c.MaxChunks,
		CapSelected: c.CapSelected,
	}
}

func (c Embedding) RankerConfig() relevance.EmbeddingConfig {
	return relevance.EmbeddingConfig{
		ChunkSize:      c.ChunkSize,
		MaxChunks:      c.MaxChunks,
		Threshold:      c.Threshold,
		FallbackChunks: c.FallbackChunks,
		Concurrency:    c.Concurrency,
		Degraded: relevance.DegradedConfig{
			ChunkSize:      c.Degraded.ChunkSize,
			MaxChunks:      c.Degraded.MaxChunks,
			Threshold:      c.Degraded.Threshold,
			FallbackChunks: c.Degraded.FallbackChunks,
		},
	}
}

func (c Cache) CacheConfig() cache.Config {
	return cache.Config{DefaultTTL: c.TTL, SweepInterval: c.SweepInterval}
}

func (c Loader) LoaderConfig() loader.LoaderConfig {
	return loader.LoaderConfig{RateLimit: c.RateLimit, Timeout: c.Timeout, MaxBytes: c.MaxBytes}
}

func (c Log) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(c.Level)
	cfg.JSON = c.JSON
	cfg.AddSource = c.Source
	return cfg
}
