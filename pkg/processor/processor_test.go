package processor_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/excerpt/pkg/processor"
)

func TestProcessor_ShortDocumentIsSingleChunk(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	text := strings.Repeat("abcde ", 20)[:119] + "x"
	require.Equal(t, 120, utf8.RuneCountInString(text))

	chunks := p.SplitIntoChunks(text, 400, 20)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestProcessor_EmptyText(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	assert.Empty(t, p.Split(""))
	assert.Empty(t, p.Split("   \n\n  "))
}

func TestProcessor_PrefersParagraphBoundaries(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 80})

	first := strings.TrimSpace(strings.Repeat("alpha ", 10))
	second := strings.TrimSpace(strings.Repeat("beta ", 12))

	chunks := p.Split(first + "\n\n" + second)
	assert.Equal(t, []string{first, second}, chunks)
}

func TestProcessor_HardCutWithoutBoundaries(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	text := strings.Repeat("x", 250)
	chunks := p.SplitIntoChunks(text, 100, 0)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestProcessor_RespectsSizeAndLimit(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("Cláusula com valor de pagamento e vigência definida. ")
		if i%7 == 0 {
			sb.WriteString("\n\n")
		}
	}

	tests := []struct {
		name      string
		size      int
		maxChunks int
	}{
		{name: "default service profile", size: 400, maxChunks: 25},
		{name: "degraded embedding profile", size: 300, maxChunks: 15},
		{name: "small chunks", size: 60, maxChunks: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := p.SplitIntoChunks(sb.String(), tt.size, tt.maxChunks)
			assert.Len(t, chunks, tt.maxChunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.size)
				assert.NotEmpty(t, strings.TrimSpace(c))
			}
		})
	}
}

func TestProcessor_KeepsDocumentOrder(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 30})

	chunks := p.Split("primeiro bloco de texto\n\nsegundo bloco de texto\n\nterceiro bloco de texto")
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0], "primeiro"))
	assert.True(t, strings.HasPrefix(chunks[1], "segundo"))
	assert.True(t, strings.HasPrefix(chunks[2], "terceiro"))
}

func TestProcessor_KeepsSentencePunctuation(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("O locatário pagará o aluguel até o dia cinco. ")
	}
	text := strings.TrimSpace(sb.String())

	chunks := p.SplitIntoChunks(text, 120, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")),
		"only whitespace is dropped between chunks")
}
