package nlq

import (
	"regexp"
	"strings"

	"nlq-workers/internal/nlq/patterns"
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// stemSuffixes are tried in order and at most one is removed.
var stemSuffixes = []string{"ing", "ed", "s"}

// Normalizer turns free text into NormalizedTokens.
type Normalizer struct {
	lib *patterns.Library
}

func NewNormalizer(lib *patterns.Library) *Normalizer {
	return &Normalizer{lib: lib}
}

// Normalize lowercases, strips punctuation, splits on whitespace, drops stopwords and
// strips one trailing ing/ed/s from each survivor. Order is preserved. Tokens that stem
// to nothing (a bare "s") are dropped.
func (n *Normalizer) Normalize(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), "")

	tokens := make([]string, 0, 8)
	for _, tok := range strings.Fields(cleaned) {
		if n.lib.IsStopword(tok) {
			continue
		}
		if stemmed := stem(tok); stemmed != "" {
			tokens = append(tokens, stemmed)
		}
	}
	return tokens
}

func stem(tok string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(tok, suffix) {
			return tok[:len(tok)-len(suffix)]
		}
	}
	return tok
}
