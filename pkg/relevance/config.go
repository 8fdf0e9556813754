package relevance

const (
	DefaultChunkSize   = 400
	DefaultThreshold   = 0.1
	DefaultMaxChunks   = 20
	DefaultCapSelected = 8
)

// Config tunes the local heuristic. Zero fields take the defaults, so a
// Threshold of zero means DefaultThreshold rather than "keep every match";
// pass a small positive value to filter as little as possible.
type Config struct {
	Algorithms  AlgorithmSet
	ChunkSize   int
	Threshold   float64
	MaxChunks   int
	CapSelected int
}

func DefaultConfig() Config {
	return Config{
		Algorithms:  AlgorithmsBoth,
		ChunkSize:   DefaultChunkSize,
		Threshold:   DefaultThreshold,
		MaxChunks:   DefaultMaxChunks,
		CapSelected: DefaultCapSelected,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Algorithms == "" {
		c.Algorithms = d.Algorithms
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.MaxChunks <= 0 {
		c.MaxChunks = d.MaxChunks
	}
	if c.CapSelected <= 0 {
		c.CapSelected = d.CapSelected
	}
	return c
}

const (
	DefaultEmbeddingChunkSize = 370
	DefaultEmbeddingThreshold = 0.3
	DefaultEmbeddingFallback  = 2
	DefaultKeyConcurrency     = 4

	DefaultDegradedChunkSize = 300
	DefaultDegradedMaxChunks = 15
	DefaultDegradedThreshold = 0.1
	DefaultDegradedFallback  = 3
)

// EmbeddingConfig tunes the embedding-augmented ranker. A zero MaxChunks
// keeps every chunk.
type EmbeddingConfig struct {
	ChunkSize      int
	MaxChunks      int
	Threshold      float64
	FallbackChunks int
	// Concurrency bounds the number of keys scored at once.
	Concurrency int
	Degraded    DegradedConfig
}

// DegradedConfig tunes the keyword path used when no embedding backend is
// available.
type DegradedConfig struct {
	ChunkSize      int
	MaxChunks      int
	Threshold      float64
	FallbackChunks int
}

func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		ChunkSize:      DefaultEmbeddingChunkSize,
		Threshold:      DefaultEmbeddingThreshold,
		FallbackChunks: DefaultEmbeddingFallback,
		Concurrency:    DefaultKeyConcurrency,
		Degraded: DegradedConfig{
			ChunkSize:      DefaultDegradedChunkSize,
			MaxChunks:      DefaultDegradedMaxChunks,
			Threshold:      DefaultDegradedThreshold,
			FallbackChunks: DefaultDegradedFallback,
		},
	}
}

func (c EmbeddingConfig) withDefaults() EmbeddingConfig {
	d := DefaultEmbeddingConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxChunks < 0 {
		c.MaxChunks = 0
	}
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.FallbackChunks <= 0 {
		c.FallbackChunks = d.FallbackChunks
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Degraded.ChunkSize <= 0 {
		c.Degraded.ChunkSize = d.Degraded.ChunkSize
	}
	if c.Degraded.MaxChunks <= 0 {
		c.Degraded.MaxChunks = d.Degraded.MaxChunks
	}
	if c.Degraded.Threshold <= 0 {
		c.Degraded.Threshold = d.Degraded.Threshold
	}
	if c.Degraded.FallbackChunks <= 0 {
		c.Degraded.FallbackChunks = d.Degraded.FallbackChunks
	}
	return c
}
