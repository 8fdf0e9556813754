package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minWordLength is the shortest token kept as a significant word.
const minWordLength = 3

// WordSet is a set of words that remembers insertion order.
type WordSet struct {
	words []string
	index map[string]struct{}
}

func newWordSet() *WordSet {
	return &WordSet{index: make(map[string]struct{})}
}

func (s *WordSet) add(word string) {
	if _, ok := s.index[word]; ok {
		return
	}
	s.index[word] = struct{}{}
	s.words = append(s.words, word)
}

// Has reports whether word is in the set.
func (s *WordSet) Has(word string) bool {
	_, ok := s.index[word]
	return ok
}

func (s *WordSet) Len() int { return len(s.words) }

// Words returns the words in first-seen order. The slice must not be modified.
func (s *WordSet) Words() []string { return s.words }

// SignificantWords lowercases text, strips everything that is not a letter or
// a digit and keeps the tokens that survive the length, digit and stop-word
// filters.
func SignificantWords(text string) *WordSet {
	set := newWordSet()
	for _, tok := range significantTokens(text) {
		set.add(tok)
	}
	return set
}

// WordFrequency counts occurrences of each significant word in text.
func WordFrequency(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range significantTokens(text) {
		freq[tok]++
	}
	return freq
}

func significantTokens(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) < minWordLength {
			continue
		}
		if isNumber(tok) || isStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isNumber(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// Common Portuguese articles, prepositions, conjunctions and copula forms.
// Entries shorter than minWordLength are listed for completeness only.
var stopwords = func() map[string]struct{} {
	words := []string{
		"o", "a", "os", "as", "um", "uma", "uns", "umas",
		"de", "do", "da", "dos", "das", "em", "no", "na", "nos", "nas",
		"para", "por", "com", "sem", "sob", "sobre", "entre",
		"e", "ou", "mas", "se", "que", "como", "quando", "onde",
		"é", "são", "foi", "será", "tem", "ter", "estar", "ser",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
