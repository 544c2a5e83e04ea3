package nlq

import (
	"fmt"
	"regexp"
	"strings"

	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

var numericValuePattern = regexp.MustCompile(`^[\d.]+$`)

// Synthesizer builds the rule-based query string. Its output is a suggestion only: it is
// not checked against the schema and LIMIT is emitted ahead of any WHERE clause.
type Synthesizer struct {
	lib *patterns.Library
}

func NewSynthesizer(lib *patterns.Library) *Synthesizer {
	return &Synthesizer{lib: lib}
}

// Synthesize renders the query for intent against table. rawText is scanned for a
// "where <col> <op> <value>" clause when the intent is filter or a filter trigger word
// appears. A trigger without that shape adds nothing.
func (s *Synthesizer) Synthesize(intent models.Intent, table, rawText string) models.SynthesizedQuery {
	var sql string
	switch intent {
	case models.IntentRetrieve:
		sql = fmt.Sprintf("SELECT * FROM %s LIMIT 10", table)
	case models.IntentCount:
		sql = fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	default:
		sql = fmt.Sprintf("SELECT * FROM %s", table)
	}

	if intent == models.IntentFilter || s.hasFilterTrigger(rawText) {
		if clause, ok := s.whereClause(rawText); ok {
			sql += " " + clause
		}
	}

	return models.SynthesizedQuery{
		SQL:    sql,
		Table:  table,
		Intent: intent,
		Source: models.QuerySourceRule,
	}
}

func (s *Synthesizer) hasFilterTrigger(text string) bool {
	for _, w := range s.lib.FilterTriggers() {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (s *Synthesizer) whereClause(text string) (string, bool) {
	m := s.lib.WherePattern().FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	col, op, val := m[1], m[2], strings.TrimSpace(m[3])
	if !numericValuePattern.MatchString(val) {
		val = "'" + val + "'"
	}
	return fmt.Sprintf("WHERE %s %s %s", col, op, val), true
}
