package nlq

import (
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

// Classifier maps tokens to an intent by scanning the intent table in priority order.
type Classifier struct {
	lib *patterns.Library
}

func NewClassifier(lib *patterns.Library) *Classifier {
	return &Classifier{lib: lib}
}

// Classify returns the first intent, in declared order, with any keyword among tokens.
// Keyword position inside the sentence plays no part.
func (c *Classifier) Classify(tokens []string) models.Intent {
	set := tokenSet(tokens)
	for _, ip := range c.lib.Intents() {
		for _, kw := range ip.Keywords {
			if _, ok := set[kw]; ok {
				return ip.Intent
			}
		}
	}
	return models.IntentNone
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
