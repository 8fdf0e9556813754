package relevance

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xhad/excerpt/pkg/processor"
)

// boostWordLength is the length a key word must exceed to earn a boost when
// it appears verbatim in the chunk.
const boostWordLength = 3

const (
	exactMatchBoost  = 0.2
	keywordBoostStep = 0.1
	keywordBoostMax  = 0.3
)

// profile caches the normalized views of a text that every scorer needs.
type profile struct {
	lower string
	words *processor.WordSet
	freq  map[string]int
	total int
}

func newProfile(text string) profile {
	freq := processor.WordFrequency(text)
	total := 0
	for _, n := range freq {
		total += n
	}
	return profile{
		lower: strings.ToLower(text),
		words: processor.SignificantWords(text),
		freq:  freq,
		total: total,
	}
}

// substringHits counts the long words of key that appear anywhere in the
// lowercased chunk, including inside other words.
func substringHits(key, chunk profile) int {
	hits := 0
	for _, w := range key.words.Words() {
		if utf8.RuneCountInString(w) > boostWordLength && strings.Contains(chunk.lower, w) {
			hits++
		}
	}
	return hits
}

// JaccardSimilarity scores the overlap of significant words, boosted by 0.2
// for every long key word found verbatim in b.
func JaccardSimilarity(a, b string) float64 {
	return jaccard(newProfile(a), newProfile(b))
}

func jaccard(a, b profile) float64 {
	if a.words.Len() == 0 || b.words.Len() == 0 {
		return 0
	}
	inter := 0
	for _, w := range a.words.Words() {
		if b.words.Has(w) {
			inter++
		}
	}
	union := a.words.Len() + b.words.Len() - inter
	index := float64(inter) / float64(union)
	boost := 1 + exactMatchBoost*float64(substringHits(a, b))
	return math.Min(index*boost, 1)
}

// ManhattanSimilarity turns the L1 distance between word frequencies into a
// similarity and adds up to 0.3 for long key words found in b.
func ManhattanSimilarity(a, b string) float64 {
	return manhattan(newProfile(a), newProfile(b))
}

func manhattan(a, b profile) float64 {
	if a.words.Len() == 0 || b.words.Len() == 0 {
		return 0
	}
	// Over the union vocabulary, |x-y| = max - min and max = x + y - min, so
	// only the words of a contribute a non-zero min.
	common := 0
	for w, na := range a.freq {
		if nb := b.freq[w]; nb > 0 {
			common += min(na, nb)
		}
	}
	maxPossible := a.total + b.total - common
	if maxPossible == 0 {
		return 0
	}
	distance := maxPossible - common
	similarity := 1 - float64(distance)/float64(maxPossible)
	boost := math.Min(keywordBoostStep*float64(substringHits(a, b)), keywordBoostMax)
	return math.Min(similarity+boost, 1)
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector is
// empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TokenJaccard is the plain Jaccard index over lowercased whitespace tokens
// longer than one rune. No stop words, no boost.
func TokenJaccard(a, b string) float64 {
	wa := tokenSet(a)
	wb := tokenSet(b)
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(tok) > 1 {
			set[tok] = struct{}{}
		}
	}
	return set
}

// KeywordDensity sums the lengths of the key's words found in chunk per one
// percent of the chunk length. Key words are split on dots, underscores and
// whitespace.
func KeywordDensity(key, chunk string) float64 {
	size := utf8.RuneCountInString(chunk)
	if size == 0 {
		return 0
	}
	lower := strings.ToLower(chunk)
	matched := 0
	for _, w := range keyWords(key) {
		if strings.Contains(lower, w) {
			matched += utf8.RuneCountInString(w)
		}
	}
	return float64(matched) / (float64(size) * 0.01)
}

func keyWords(key string) []string {
	parts := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '.' || r == '_' || unicode.IsSpace(r)
	})
	out := parts[:0]
	for _, p := range parts {
		if utf8.RuneCountInString(p) > 1 {
			out = append(out, p)
		}
	}
	return out
}
