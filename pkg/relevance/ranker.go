// Package relevance ranks document chunks against the keys of a field schema
// so that only the excerpts likely to hold the requested values reach the
// model.
package relevance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xhad/excerpt/internal/types"
	"github.com/xhad/excerpt/pkg/schema"
)

// ExcerptSeparator joins selected chunks into prompt content.
const ExcerptSeparator = "\n\n---\n\n"

const (
	StrategyLocal     = "local"
	StrategyEmbedding = "embedding"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Stats describes one ranking run.
type Stats struct {
	Strategy       string
	Duration       time.Duration
	KeysProcessed  int
	ChunksAnalyzed int
	MatchesFound   int
	ChunksSelected int
	Algorithms     []string
	KeysSkipped    int
}

// Outcome is the result of a ranking run. A degraded outcome still carries
// usable chunks; Reason says why the preferred path was not taken.
type Outcome struct {
	Chunks []string
	Status Status
	Reason string
	Stats  Stats
}

func (o Outcome) Degraded() bool { return o.Status == StatusDegraded }

// Text joins the chunks with ExcerptSeparator.
func (o Outcome) Text() string { return JoinExcerpts(o.Chunks) }

// Ranker selects the chunks of document relevant to the fields of a schema.
type Ranker interface {
	Name() string
	Rank(ctx context.Context, document string, node *schema.Node) Outcome
}

// NewRanker builds the ranker registered under name. The embedder is only
// used by the embedding strategy and may be nil.
func NewRanker(name string, cfg Config, ecfg EmbeddingConfig, embedder types.Embedder) (Ranker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyLocal:
		return NewLocalHeuristic(cfg), nil
	case StrategyEmbedding:
		return NewEmbeddingAugmented(embedder, ecfg), nil
	}
	return nil, fmt.Errorf("unknown ranking strategy %q", name)
}

func JoinExcerpts(chunks []string) string {
	return strings.Join(chunks, ExcerptSeparator)
}

// firstN copies up to n distinct leading chunks.
func firstN(chunks []string, n int) []string {
	out := newChunkSet()
	for _, c := range chunks {
		if out.len() == n {
			break
		}
		out.add(c)
	}
	return out.chunks
}

type chunkSet struct {
	chunks []string
	seen   map[string]struct{}
}

func newChunkSet() *chunkSet {
	return &chunkSet{seen: make(map[string]struct{})}
}

func (s *chunkSet) add(chunk string) {
	if _, ok := s.seen[chunk]; ok {
		return
	}
	s.seen[chunk] = struct{}{}
	s.chunks = append(s.chunks, chunk)
}

func (s *chunkSet) len() int { return len(s.chunks) }
