package nlq

import (
	"nlq-workers/internal/nlq/patterns"
)

// Entity is a canonical field and the synonym that matched it.
type Entity struct {
	Field   string `json:"field"`
	Synonym string `json:"synonym"`
}

// Entities keeps extraction order, which is the declared field order.
type Entities []Entity

func (e Entities) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, ent := range e {
		out[ent.Field] = ent.Synonym
	}
	return out
}

func (e Entities) Fields() []string {
	out := make([]string, len(e))
	for i, ent := range e {
		out[i] = ent.Field
	}
	return out
}

// Extractor maps tokens to canonical fields through the per-table synonym lists.
type Extractor struct {
	lib *patterns.Library
}

func NewExtractor(lib *patterns.Library) *Extractor {
	return &Extractor{lib: lib}
}

// Extract records, for each field of table, the first synonym present among tokens.
// An unset or unknown table yields no entities.
func (x *Extractor) Extract(tokens []string, table string) Entities {
	if table == "" {
		return nil
	}
	ts, ok := x.lib.FieldSynonyms(table)
	if !ok {
		return nil
	}

	set := tokenSet(tokens)
	var out Entities
	for _, f := range ts.Fields {
		for _, syn := range f.Synonyms {
			if _, hit := set[syn]; hit {
				out = append(out, Entity{Field: f.Field, Synonym: syn})
				break
			}
		}
	}
	return out
}
