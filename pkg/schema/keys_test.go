package schema_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/excerpt/pkg/schema"
)

func TestExtractKeys_NestedObject(t *testing.T) {
	node, err := schema.Parse([]byte(`{"name": "", "address": {"city": ""}}`))
	require.NoError(t, err)

	keys := schema.ExtractKeys(node)

	assert.ElementsMatch(t, []string{"name", "address", "city", "address.city"}, keys)
	assert.Equal(t, "address.city", keys[0])
	assert.Equal(t, []string{"address.city", "name", "address", "city"}, keys)
}

func TestExtractKeys(t *testing.T) {
	tests := []struct {
		name string
		node *schema.Node
		want []string
	}{
		{
			name: "nil schema",
			node: nil,
			want: []string{},
		},
		{
			name: "root primitive emits nothing",
			node: schema.NewString("valor"),
			want: []string{},
		},
		{
			name: "root array emits nothing",
			node: schema.NewArray(schema.NewString("x")),
			want: []string{},
		},
		{
			name: "array field emits parent path only",
			node: schema.NewObject(
				schema.F("itens", schema.NewArray(schema.NewObject(schema.F("preco", schema.NewString(""))))),
			),
			want: []string{"itens"},
		},
		{
			name: "single letter keys are dropped",
			node: schema.NewObject(
				schema.F("x", schema.NewString("")),
				schema.F("id", schema.NewNull()),
			),
			want: []string{"id"},
		},
		{
			name: "deeper paths first with stable ties",
			node: schema.NewObject(
				schema.F("contratante", schema.NewObject(
					schema.F("nome", schema.NewString("")),
					schema.F("endereco", schema.NewObject(
						schema.F("cidade", schema.NewString("")),
					)),
				)),
				schema.F("valor", schema.NewString("")),
			),
			want: []string{
				"contratante.endereco.cidade",
				"contratante.nome",
				"contratante.endereco",
				"contratante",
				"nome",
				"endereco",
				"cidade",
				"valor",
			},
		},
		{
			name: "numeric leaf contributes its path",
			node: schema.NewObject(
				schema.F("parcelas", &schema.Node{Kind: schema.Scalar, Value: "3"}),
			),
			want: []string{"parcelas"},
		},
		{
			name: "repeated names are deduplicated",
			node: schema.NewObject(
				schema.F("emitente", schema.NewObject(schema.F("nome", schema.NewString("")))),
				schema.F("destinatario", schema.NewObject(schema.F("nome", schema.NewString("")))),
			),
			want: []string{"emitente.nome", "destinatario.nome", "emitente", "nome", "destinatario"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.ExtractKeys(tt.node))
		})
	}
}

func TestExtractKeys_Properties(t *testing.T) {
	doc := `
nota:
  numero: ""
  emissao: ""
  emitente:
    razao_social: ""
    cnpj: ""
  itens: []
total: ""
a: ""
`
	node, err := schema.Parse([]byte(doc))
	require.NoError(t, err)

	first := schema.ExtractKeys(node)
	second := schema.ExtractKeys(node)
	assert.ElementsMatch(t, first, second)

	seen := map[string]bool{}
	for i, k := range first {
		assert.Greater(t, utf8.RuneCountInString(k), 1)
		assert.False(t, seen[k], "duplicate key %q", k)
		seen[k] = true
		if i > 0 {
			assert.LessOrEqual(t, strings.Count(k, "."), strings.Count(first[i-1], "."))
		}
	}
	assert.Contains(t, first, "nota.emitente.razao_social")
	assert.Contains(t, first, "nota.itens")
	assert.NotContains(t, first, "a")
}
