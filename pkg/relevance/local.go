package relevance

import (
	"context"
	"time"

	"github.com/xhad/excerpt/pkg/logger"
	"github.com/xhad/excerpt/pkg/processor"
	"github.com/xhad/excerpt/pkg/schema"
)

// SelectRelevantChunks scores every key of node against the leading chunks of
// document and returns at most cfg.CapSelected chunks, best first.
func SelectRelevantChunks(document string, node *schema.Node, cfg Config) []string {
	chunks, _ := selectLocal(document, node, cfg.withDefaults())
	return chunks
}

func selectLocal(document string, node *schema.Node, cfg Config) ([]string, Stats) {
	keys := schema.ExtractKeys(node)
	chunks := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize: cfg.ChunkSize,
		MaxChunks: cfg.MaxChunks,
	}).Split(document)

	profiles := make([]profile, len(chunks))
	for i, c := range chunks {
		profiles[i] = newProfile(c)
	}

	var matches []Match
	for _, key := range keys {
		kp := newProfile(key)
		for i, chunk := range chunks {
			matches = append(matches, scorePair(key, kp, chunk, profiles[i], cfg.Algorithms, cfg.Threshold)...)
		}
	}

	selected := Aggregate(matches, cfg.CapSelected)
	return selected, Stats{
		Strategy:       StrategyLocal,
		KeysProcessed:  len(keys),
		ChunksAnalyzed: len(chunks),
		MatchesFound:   len(matches),
		ChunksSelected: len(selected),
		Algorithms:     cfg.Algorithms.names(),
	}
}

// LocalHeuristic ranks chunks with the lexical Jaccard and Manhattan scorers.
type LocalHeuristic struct {
	config Config
}

func NewLocalHeuristic(cfg Config) *LocalHeuristic {
	return &LocalHeuristic{config: cfg.withDefaults()}
}

func (l *LocalHeuristic) Name() string { return StrategyLocal }

func (l *LocalHeuristic) Config() Config { return l.config }

func (l *LocalHeuristic) Rank(ctx context.Context, document string, node *schema.Node) Outcome {
	start := time.Now()
	chunks, stats := selectLocal(document, node, l.config)
	stats.Duration = time.Since(start)

	logger.FromContext(ctx).Info("local ranking completed",
		"keys", stats.KeysProcessed,
		"chunks", stats.ChunksAnalyzed,
		"matches", stats.MatchesFound,
		"selected", stats.ChunksSelected,
		"algorithms", stats.Algorithms,
		"duration", stats.Duration,
	)

	return Outcome{Chunks: chunks, Status: StatusOK, Stats: stats}
}
