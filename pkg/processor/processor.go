package processor

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize = 400
	DefaultMaxChunks = 20
)

// DefaultSeparators orders split points from paragraph to word. The empty
// separator makes the splitter fall back to a hard rune cut. Separators are
// kept in the text, so only whitespace is lost at chunk edges.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

type ProcessorConfig struct {
	ChunkSize  int
	MaxChunks  int
	Separators []string
}

// Processor splits document text into bounded, non-overlapping chunks.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.MaxChunks < 0 {
		config.MaxChunks = 0
	}
	if len(config.Separators) == 0 {
		config.Separators = DefaultSeparators
	}

	return Processor{
		config: config,
	}
}

// Split uses the configured chunk size and limit.
func (p Processor) Split(text string) []string {
	return p.SplitIntoChunks(text, p.config.ChunkSize, p.config.MaxChunks)
}

// SplitIntoChunks returns at most maxChunks segments of at most chunkSize
// runes, in document order. A maxChunks of zero keeps every segment.
func (p Processor) SplitIntoChunks(text string, chunkSize, maxChunks int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = p.config.ChunkSize
	}

	separators := p.config.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators(separators),
		textsplitter.WithKeepSeparator(true),
	)

	segments, err := splitter.SplitText(text)
	if err != nil {
		segments = hardCut(text, chunkSize)
	}

	chunks := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		chunks = append(chunks, segment)
		if maxChunks > 0 && len(chunks) == maxChunks {
			break
		}
	}
	return chunks
}

func hardCut(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
