package relevance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xhad/excerpt/internal/types"
	"github.com/xhad/excerpt/pkg/logger"
	"github.com/xhad/excerpt/pkg/processor"
	"github.com/xhad/excerpt/pkg/schema"
)

const (
	cosineWeight       = 0.7
	tokenJaccardWeight = 0.3

	degradedJaccardWeight = 0.6
	degradedKeywordWeight = 0.4
)

// EmbeddingAugmented picks, for every key, the chunk closest to it in
// embedding space blended with token overlap. Without a working backend it
// falls back to a keyword-density ranking and reports a degraded outcome.
type EmbeddingAugmented struct {
	embedder types.Embedder
	config   EmbeddingConfig
}

func NewEmbeddingAugmented(embedder types.Embedder, cfg EmbeddingConfig) *EmbeddingAugmented {
	return &EmbeddingAugmented{embedder: embedder, config: cfg.withDefaults()}
}

func (e *EmbeddingAugmented) Name() string { return StrategyEmbedding }

func (e *EmbeddingAugmented) Config() EmbeddingConfig { return e.config }

func (e *EmbeddingAugmented) Rank(ctx context.Context, document string, node *schema.Node) Outcome {
	start := time.Now()
	log := logger.FromContext(ctx)
	keys := schema.ExtractKeys(node)

	if e.embedder == nil {
		return e.degraded(ctx, start, document, keys, "no embedding backend configured")
	}

	chunks := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize: e.config.ChunkSize,
		MaxChunks: e.config.MaxChunks,
	}).Split(document)

	stats := Stats{
		Strategy:       StrategyEmbedding,
		KeysProcessed:  len(keys),
		ChunksAnalyzed: len(chunks),
		Algorithms:     []string{"cosine", "token_jaccard"},
	}
	if len(chunks) == 0 {
		stats.Duration = time.Since(start)
		return Outcome{Status: StatusOK, Stats: stats}
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return e.degraded(ctx, start, document, keys, fmt.Sprintf("failed to embed chunks: %v", err))
	}
	if len(vectors) != len(chunks) {
		return e.degraded(ctx, start, document, keys,
			fmt.Sprintf("embedding backend returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	best := make([]int, len(keys))
	var skipped atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.config.Concurrency)
	for i, key := range keys {
		best[i] = -1
		g.Go(func() error {
			query, err := e.embedder.EmbedQuery(ctx, key)
			if err != nil {
				skipped.Add(1)
				log.Warn("skipping key", "key", key, "error", err)
				return nil
			}
			idx, score := bestChunk(chunks, func(j int) float64 {
				return cosineWeight*CosineSimilarity(query, vectors[j]) + tokenJaccardWeight*TokenJaccard(key, chunks[j])
			})
			if idx >= 0 && score > e.config.Threshold {
				best[i] = idx
			}
			return nil
		})
	}
	_ = g.Wait()

	selected := newChunkSet()
	for _, idx := range best {
		if idx >= 0 {
			stats.MatchesFound++
			selected.add(chunks[idx])
		}
	}
	result := selected.chunks
	if len(result) == 0 {
		result = firstN(chunks, e.config.FallbackChunks)
	}

	stats.KeysSkipped = int(skipped.Load())
	stats.ChunksSelected = len(result)
	stats.Duration = time.Since(start)
	log.Info("embedding ranking completed",
		"keys", stats.KeysProcessed,
		"skipped", stats.KeysSkipped,
		"chunks", stats.ChunksAnalyzed,
		"selected", stats.ChunksSelected,
		"duration", stats.Duration,
	)
	return Outcome{Chunks: result, Status: StatusOK, Stats: stats}
}

// degraded ranks with token overlap and keyword density only.
func (e *EmbeddingAugmented) degraded(ctx context.Context, start time.Time, document string, keys []string, reason string) Outcome {
	cfg := e.config.Degraded
	chunks := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize: cfg.ChunkSize,
		MaxChunks: cfg.MaxChunks,
	}).Split(document)

	stats := Stats{
		Strategy:       StrategyEmbedding,
		KeysProcessed:  len(keys),
		ChunksAnalyzed: len(chunks),
		Algorithms:     []string{"token_jaccard", "keyword_density"},
	}

	selected := newChunkSet()
	for _, key := range keys {
		idx, score := bestChunk(chunks, func(j int) float64 {
			return degradedJaccardWeight*TokenJaccard(key, chunks[j]) +
				degradedKeywordWeight*(KeywordDensity(key, chunks[j])/100)
		})
		if idx >= 0 && score > cfg.Threshold {
			stats.MatchesFound++
			selected.add(chunks[idx])
		}
	}
	result := selected.chunks
	if len(result) == 0 {
		result = firstN(chunks, cfg.FallbackChunks)
	}

	stats.ChunksSelected = len(result)
	stats.Duration = time.Since(start)
	logger.FromContext(ctx).Warn("embedding ranking degraded",
		"reason", reason,
		"keys", stats.KeysProcessed,
		"selected", stats.ChunksSelected,
	)
	return Outcome{Chunks: result, Status: StatusDegraded, Reason: reason, Stats: stats}
}

// bestChunk returns the first index with the highest score, or -1 when there
// are no chunks.
func bestChunk(chunks []string, score func(int) float64) (int, float64) {
	idx, top := -1, 0.0
	for j := range chunks {
		s := score(j)
		if idx < 0 || s > top {
			idx, top = j, s
		}
	}
	return idx, top
}
