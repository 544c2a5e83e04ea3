package nlq

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"nlq-workers/internal/nlq/patterns"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(patterns.Default())

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercases and drops stopwords", "Show me the ITEMS, please!", []string{"show", "me", "item", "please"}},
		{"strips one suffix", "running tested cats", []string{"runn", "test", "cat"}},
		{"punctuation inside words", "item-code's value", []string{"itemcode", "value"}},
		{"keeps order", "zeta alpha mid", []string{"zeta", "alpha", "mid"}},
		{"empty input", "", []string{}},
		{"only stopwords", "the and of", []string{}},
		{"bare suffix token is dropped", "s ed quantity", []string{"quantity"}},
		{"table marker keeps its word", "@InventoryItem list", []string{"inventoryitem", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_TokensAreBareWords(t *testing.T) {
	n := NewNormalizer(patterns.Default())
	word := regexp.MustCompile(`^\w+$`)

	inputs := []string{
		"Give me   details\tabout\n@AuditLog!!",
		"from 2024-01-05 09:00 to 17:00.",
		"where name = 'Widget'; DROP TABLE x --",
		"  \t ",
		"ünïcode wörds & symbols #42",
	}
	for _, in := range inputs {
		for _, tok := range n.Normalize(in) {
			assert.Regexp(t, word, tok, "input %q", in)
		}
	}
}
