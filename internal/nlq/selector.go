package nlq

import (
	"regexp"

	"nlq-workers/internal/nlq/patterns"
)

var tableMarkerPattern = regexp.MustCompile(`@(\w+)`)

// Selector finds an explicit @Table marker in raw text.
type Selector struct {
	lib *patterns.Library
}

func NewSelector(lib *patterns.Library) *Selector {
	return &Selector{lib: lib}
}

// Select returns the first marker naming an allowed table, matched case-sensitively.
// Markers for unknown tables are ignored.
func (s *Selector) Select(text string) (string, bool) {
	for _, m := range tableMarkerPattern.FindAllStringSubmatch(text, -1) {
		if s.lib.IsTable(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

// Session keeps a sticky table selection for one interactive user.
// It is not safe for concurrent use; services pass the table per request instead.
type Session struct {
	selector *Selector
	table    string
}

func NewSession(selector *Selector) *Session {
	return &Session{selector: selector}
}

// SelectTable records the table named by text, if any, and reports whether a marker hit.
// The current selection is left alone on a miss.
func (s *Session) SelectTable(text string) (string, bool) {
	table, ok := s.selector.Select(text)
	if ok {
		s.table = table
	}
	return table, ok
}

func (s *Session) Table() string { return s.table }

func (s *Session) Reset() { s.table = "" }
