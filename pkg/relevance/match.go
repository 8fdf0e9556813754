package relevance

import (
	"fmt"
	"sort"
	"strings"
)

type Algorithm string

const (
	Jaccard   Algorithm = "jaccard"
	Manhattan Algorithm = "manhattan"
)

// Weight is the contribution of one match score to a chunk's combined score.
func (a Algorithm) Weight() float64 {
	if a == Jaccard {
		return 1.2
	}
	return 0.8
}

// AlgorithmSet selects which scorers run for every key and chunk pair.
type AlgorithmSet string

const (
	AlgorithmsJaccard   AlgorithmSet = "jaccard"
	AlgorithmsManhattan AlgorithmSet = "manhattan"
	AlgorithmsBoth      AlgorithmSet = "both"
)

func ParseAlgorithmSet(s string) (AlgorithmSet, error) {
	switch AlgorithmSet(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlgorithmsBoth:
		return AlgorithmsBoth, nil
	case AlgorithmsJaccard:
		return AlgorithmsJaccard, nil
	case AlgorithmsManhattan:
		return AlgorithmsManhattan, nil
	}
	return "", fmt.Errorf("unknown algorithm set %q", s)
}

// Algorithms lists the scorers in the order they run.
func (s AlgorithmSet) Algorithms() []Algorithm {
	switch s {
	case AlgorithmsJaccard:
		return []Algorithm{Jaccard}
	case AlgorithmsManhattan:
		return []Algorithm{Manhattan}
	default:
		return []Algorithm{Jaccard, Manhattan}
	}
}

func (s AlgorithmSet) names() []string {
	algs := s.Algorithms()
	out := make([]string, len(algs))
	for i, a := range algs {
		out[i] = string(a)
	}
	return out
}

// Match is one key and chunk pair that scored above the threshold.
type Match struct {
	Key       string
	Chunk     string
	Algorithm Algorithm
	Score     float64
}

// ScoreLocal runs the selected scorers on a pair and keeps the scores that
// exceed threshold.
func ScoreLocal(key, chunk string, algorithms AlgorithmSet, threshold float64) []Match {
	return scorePair(key, newProfile(key), chunk, newProfile(chunk), algorithms, threshold)
}

func scorePair(key string, kp profile, chunk string, cp profile, algorithms AlgorithmSet, threshold float64) []Match {
	var matches []Match
	for _, alg := range algorithms.Algorithms() {
		var score float64
		switch alg {
		case Jaccard:
			score = jaccard(kp, cp)
		case Manhattan:
			score = manhattan(kp, cp)
		}
		if score > threshold {
			matches = append(matches, Match{Key: key, Chunk: chunk, Algorithm: alg, Score: score})
		}
	}
	return matches
}

// Aggregate sums the weighted scores per chunk and returns at most limit
// chunks, best first. Equal scores keep the order of first appearance.
func Aggregate(matches []Match, limit int) []string {
	if limit <= 0 {
		limit = DefaultCapSelected
	}

	type aggregate struct {
		chunk string
		score float64
	}
	index := make(map[string]int)
	var aggs []aggregate
	for _, m := range matches {
		i, ok := index[m.Chunk]
		if !ok {
			i = len(aggs)
			index[m.Chunk] = i
			aggs = append(aggs, aggregate{chunk: m.Chunk})
		}
		aggs[i].score += m.Score * m.Algorithm.Weight()
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].score > aggs[j].score
	})

	if len(aggs) > limit {
		aggs = aggs[:limit]
	}
	chunks := make([]string, len(aggs))
	for i, a := range aggs {
		chunks[i] = a.chunk
	}
	return chunks
}
