package relevance_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/excerpt/pkg/relevance"
	"github.com/xhad/excerpt/pkg/schema"
)

func TestParseAlgorithmSet(t *testing.T) {
	tests := []struct {
		in      string
		want    relevance.AlgorithmSet
		wantErr bool
	}{
		{in: "", want: relevance.AlgorithmsBoth},
		{in: "both", want: relevance.AlgorithmsBoth},
		{in: " Jaccard ", want: relevance.AlgorithmsJaccard},
		{in: "manhattan", want: relevance.AlgorithmsManhattan},
		{in: "cosine", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := relevance.ParseAlgorithmSet(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreLocal_AlgorithmSelection(t *testing.T) {
	key, chunk := "valor total", "O valor total do contrato"

	both := relevance.ScoreLocal(key, chunk, relevance.AlgorithmsBoth, 0)
	require.Len(t, both, 2)
	assert.Equal(t, relevance.Jaccard, both[0].Algorithm)
	assert.Equal(t, relevance.Manhattan, both[1].Algorithm)
	for _, m := range both {
		assert.Equal(t, key, m.Key)
		assert.Equal(t, chunk, m.Chunk)
	}

	onlyJaccard := relevance.ScoreLocal(key, chunk, relevance.AlgorithmsJaccard, 0)
	require.Len(t, onlyJaccard, 1)
	assert.Equal(t, relevance.Jaccard, onlyJaccard[0].Algorithm)

	onlyManhattan := relevance.ScoreLocal(key, chunk, relevance.AlgorithmsManhattan, 0)
	require.Len(t, onlyManhattan, 1)
	assert.Equal(t, relevance.Manhattan, onlyManhattan[0].Algorithm)
}

func TestScoreLocal_ThresholdIsStrict(t *testing.T) {
	// Jaccard of identical single-word texts is exactly 1.
	assert.Empty(t, relevance.ScoreLocal("cidade", "cidade", relevance.AlgorithmsJaccard, 1))
	assert.Len(t, relevance.ScoreLocal("cidade", "cidade", relevance.AlgorithmsJaccard, 0.99), 1)
	assert.Empty(t, relevance.ScoreLocal("", "cidade", relevance.AlgorithmsBoth, 0))
}

func TestScoreLocal_ThresholdMonotonic(t *testing.T) {
	keys := []string{"total", "valor.total", "cliente.nome", "data_emissao", "cidade"}
	chunks := []string{
		"Total: R$ 1.234,56 pago em dinheiro",
		"Cliente: Maria da Silva, nome social Maria",
		"Data de emissão 01/02/2024, cidade de Recife",
		"Valor total da nota: R$ 99,90",
		"Lorem ipsum dolor sit amet",
	}
	count := func(threshold float64) int {
		n := 0
		for _, k := range keys {
			for _, c := range chunks {
				n += len(relevance.ScoreLocal(k, c, relevance.AlgorithmsBoth, threshold))
			}
		}
		return n
	}

	prev := count(0)
	assert.Greater(t, prev, 0)
	for _, threshold := range []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1} {
		n := count(threshold)
		assert.LessOrEqual(t, n, prev, "threshold %.2f", threshold)
		prev = n
	}
}

func TestAggregate(t *testing.T) {
	matches := []relevance.Match{
		{Chunk: "a", Algorithm: relevance.Jaccard, Score: 0.5},
		{Chunk: "b", Algorithm: relevance.Jaccard, Score: 0.5},
		{Chunk: "c", Algorithm: relevance.Jaccard, Score: 0.2},
		{Chunk: "c", Algorithm: relevance.Manhattan, Score: 0.5},
		{Chunk: "d", Algorithm: relevance.Manhattan, Score: 0.1},
	}

	assert.Equal(t, []string{"c", "a", "b", "d"}, relevance.Aggregate(matches, 8))
	assert.Equal(t, []string{"c", "a"}, relevance.Aggregate(matches, 2))
	assert.Empty(t, relevance.Aggregate(nil, 8))
}

func TestAggregate_DefaultCap(t *testing.T) {
	var matches []relevance.Match
	for i := 0; i < 12; i++ {
		matches = append(matches, relevance.Match{Chunk: fmt.Sprint(i), Algorithm: relevance.Jaccard, Score: 0.5})
	}
	got := relevance.Aggregate(matches, 0)
	assert.Len(t, got, relevance.DefaultCapSelected)
	assert.Equal(t, "0", got[0])
}

func TestSelectRelevantChunks_TotalScenario(t *testing.T) {
	filler := strings.TrimSpace(strings.Repeat("lorem ipsum dolor ", 21))
	document := filler + "\n\nTotal: R$ 1.234,56 pago em dinheiro\n\n" + filler

	node, err := schema.Parse([]byte(`{"total": ""}`))
	require.NoError(t, err)

	chunks := relevance.SelectRelevantChunks(document, node, relevance.Config{
		Algorithms: relevance.AlgorithmsJaccard,
		Threshold:  0.05,
	})

	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0], "Total: R$ 1.234,56 pago em dinheiro")
}

func TestSelectRelevantChunks_ZeroThresholdTakesDefault(t *testing.T) {
	filler := strings.TrimSpace(strings.Repeat("lorem ipsum dolor ", 21))
	document := filler + "\n\nTotal: R$ 1.234,56 pago em dinheiro\n\n" + filler
	node := schema.NewObject(schema.F("total", schema.NewString("")))

	assert.Equal(t,
		relevance.SelectRelevantChunks(document, node, relevance.Config{Threshold: relevance.DefaultThreshold}),
		relevance.SelectRelevantChunks(document, node, relevance.Config{}))
	assert.Equal(t, relevance.DefaultThreshold, relevance.NewLocalHeuristic(relevance.Config{}).Config().Threshold)
}

func TestSelectRelevantChunks_Cap(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 30; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("Parcela %d: valor total de R$ %d,00 com vencimento mensal", i, 100+i))
	}
	document := strings.Join(paragraphs, "\n\n")
	node := schema.NewObject(
		schema.F("valor", schema.NewString("")),
		schema.F("vencimento", schema.NewString("")),
	)

	chunks := relevance.SelectRelevantChunks(document, node, relevance.Config{ChunkSize: 60})
	assert.Len(t, chunks, relevance.DefaultCapSelected)

	chunks = relevance.SelectRelevantChunks(document, node, relevance.Config{ChunkSize: 60, CapSelected: 3})
	assert.Len(t, chunks, 3)
}

func TestSelectRelevantChunks_Degenerate(t *testing.T) {
	node := schema.NewObject(schema.F("total", schema.NewString("")))

	assert.Empty(t, relevance.SelectRelevantChunks("", node, relevance.Config{}))
	assert.Empty(t, relevance.SelectRelevantChunks("Total: 10", nil, relevance.Config{}))
	assert.Empty(t, relevance.SelectRelevantChunks("Total: 10", schema.NewString("x"), relevance.Config{}))
}

func TestJoinExcerpts(t *testing.T) {
	assert.Equal(t, "a\n\n---\n\nb", relevance.JoinExcerpts([]string{"a", "b"}))
	assert.Equal(t, "", relevance.JoinExcerpts(nil))
}
