// Package patterns holds the fixed vocabularies the translator matches against: stopwords,
// intent keywords, the table allow-list, per-table field synonyms and the date/time
// expressions. A Library is immutable once built and safe to share across goroutines.
package patterns

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"nlq-workers/internal/models"
)

var ErrInvalidLibrary = errors.New("INVALID_PATTERN_LIBRARY")

type IntentPattern struct {
	Intent   models.Intent `yaml:"intent"`
	Keywords []string      `yaml:"keywords"`
}

type FieldSynonyms struct {
	Field    string   `yaml:"field"`
	Synonyms []string `yaml:"synonyms"`
}

type TableSynonyms struct {
	Table  string          `yaml:"table"`
	Fields []FieldSynonyms `yaml:"fields"`
}

// Definition is the serialized form of a Library. Empty sections fall back to the built-in lists.
type Definition struct {
	Version          string          `yaml:"version"`
	Stopwords        []string        `yaml:"stopwords"`
	Intents          []IntentPattern `yaml:"intents"`
	Tables           []string        `yaml:"tables"`
	FieldSynonyms    []TableSynonyms `yaml:"field_synonyms"`
	DatePatterns     []string        `yaml:"date_patterns"`
	TimePatterns     []string        `yaml:"time_patterns"`
	RangePatterns    []string        `yaml:"range_patterns"`
	FilterTriggers   []string        `yaml:"filter_triggers"`
	WherePattern     string          `yaml:"where_pattern"`
	TimestampColumns []string        `yaml:"timestamp_columns"`
}

// Library is the compiled vocabulary.
type Library struct {
	version          string
	stopwords        map[string]struct{}
	intents          []IntentPattern
	tables           []string
	fieldSynonyms    map[string]TableSynonyms // keyed by lowercase table name
	datePatterns     []*regexp.Regexp
	timePatterns     []*regexp.Regexp
	rangePatterns    []*regexp.Regexp
	filterTriggers   []string
	wherePattern     *regexp.Regexp
	timestampColumns []string
}

// Load reads a YAML vocabulary file. Sections the file omits keep their built-in values.
func Load(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern library %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a Library from YAML bytes.
func Parse(raw []byte) (*Library, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}
	return build(def.withDefaults())
}

// LoadOrDefault returns the built-in library when path is empty.
func LoadOrDefault(path string) (*Library, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

func (s Definition) withDefaults() Definition {
	if s.Version == "" {
		s.Version = DefaultVersion
	}
	if len(s.Stopwords) == 0 {
		s.Stopwords = defaultStopwords
	}
	if len(s.Intents) == 0 {
		s.Intents = defaultIntents
	}
	if len(s.Tables) == 0 {
		s.Tables = defaultTables
	}
	if len(s.FieldSynonyms) == 0 {
		s.FieldSynonyms = defaultFieldSynonyms
	}
	if len(s.DatePatterns) == 0 {
		s.DatePatterns = defaultDatePatterns
	}
	if len(s.TimePatterns) == 0 {
		s.TimePatterns = defaultTimePatterns
	}
	if len(s.RangePatterns) == 0 {
		s.RangePatterns = defaultRangePatterns
	}
	if len(s.FilterTriggers) == 0 {
		s.FilterTriggers = defaultFilterTriggers
	}
	if s.WherePattern == "" {
		s.WherePattern = defaultWherePattern
	}
	if len(s.TimestampColumns) == 0 {
		s.TimestampColumns = defaultTimestampColumns
	}
	return s
}

func build(s Definition) (*Library, error) {
	lib := &Library{
		version:          s.Version,
		stopwords:        make(map[string]struct{}, len(s.Stopwords)),
		intents:          make([]IntentPattern, 0, len(s.Intents)),
		tables:           append([]string(nil), s.Tables...),
		fieldSynonyms:    make(map[string]TableSynonyms, len(s.FieldSynonyms)),
		filterTriggers:   append([]string(nil), s.FilterTriggers...),
		timestampColumns: append([]string(nil), s.TimestampColumns...),
	}

	for _, w := range s.Stopwords {
		lib.stopwords[strings.ToLower(w)] = struct{}{}
	}

	for _, ip := range s.Intents {
		if ip.Intent == models.IntentNone {
			return nil, fmt.Errorf("%w: intent entry without a name", ErrInvalidLibrary)
		}
		lib.intents = append(lib.intents, IntentPattern{
			Intent:   ip.Intent,
			Keywords: append([]string(nil), ip.Keywords...),
		})
	}

	for _, ts := range s.FieldSynonyms {
		key := strings.ToLower(ts.Table)
		if _, dup := lib.fieldSynonyms[key]; dup {
			return nil, fmt.Errorf("%w: duplicate synonym table %q", ErrInvalidLibrary, ts.Table)
		}
		fields := make([]FieldSynonyms, len(ts.Fields))
		for i, f := range ts.Fields {
			fields[i] = FieldSynonyms{Field: f.Field, Synonyms: append([]string(nil), f.Synonyms...)}
		}
		lib.fieldSynonyms[key] = TableSynonyms{Table: ts.Table, Fields: fields}
	}

	var err error
	if lib.datePatterns, err = compileAll("date", s.DatePatterns); err != nil {
		return nil, err
	}
	if lib.timePatterns, err = compileAll("time", s.TimePatterns); err != nil {
		return nil, err
	}
	if lib.rangePatterns, err = compileAll("range", s.RangePatterns); err != nil {
		return nil, err
	}
	for _, re := range lib.rangePatterns {
		if re.NumSubexp() < 2 {
			return nil, fmt.Errorf("%w: range pattern %q needs two capture groups", ErrInvalidLibrary, re.String())
		}
	}
	if lib.wherePattern, err = regexp.Compile(s.WherePattern); err != nil {
		return nil, fmt.Errorf("%w: where pattern: %v", ErrInvalidLibrary, err)
	}
	if lib.wherePattern.NumSubexp() < 3 {
		return nil, fmt.Errorf("%w: where pattern needs column, operator and value groups", ErrInvalidLibrary)
	}
	return lib, nil
}

func compileAll(kind string, exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidLibrary, kind, expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (l *Library) Version() string { return l.version }

func (l *Library) IsStopword(token string) bool {
	_, ok := l.stopwords[token]
	return ok
}

// Intents returns the intent table in priority order.
func (l *Library) Intents() []IntentPattern { return l.intents }

// Tables returns the table allow-list.
func (l *Library) Tables() []string { return l.tables }

// IsTable is a case-sensitive allow-list check.
func (l *Library) IsTable(name string) bool {
	for _, t := range l.tables {
		if t == name {
			return true
		}
	}
	return false
}

// FieldSynonyms looks a table up case-insensitively.
func (l *Library) FieldSynonyms(table string) (TableSynonyms, bool) {
	ts, ok := l.fieldSynonyms[strings.ToLower(table)]
	return ts, ok
}

func (l *Library) DatePatterns() []*regexp.Regexp  { return l.datePatterns }
func (l *Library) TimePatterns() []*regexp.Regexp  { return l.timePatterns }
func (l *Library) RangePatterns() []*regexp.Regexp { return l.rangePatterns }
func (l *Library) FilterTriggers() []string        { return l.filterTriggers }
func (l *Library) WherePattern() *regexp.Regexp    { return l.wherePattern }

// IsTimestampColumn reports whether a column name looks like a point in time.
func (l *Library) IsTimestampColumn(column string) bool {
	lc := strings.ToLower(column)
	for _, c := range l.timestampColumns {
		if lc == c {
			return true
		}
	}
	return false
}

// Validate checks the synonym map of one table against an introspected schema and returns
// the canonical fields the schema lacks. An unavailable or empty schema yields nothing.
func (l *Library) Validate(schema models.TableSchema) []string {
	if schema.Status != models.SchemaAvailable {
		return nil
	}
	ts, ok := l.FieldSynonyms(schema.Table)
	if !ok {
		return nil
	}
	var missing []string
	for _, f := range ts.Fields {
		if _, ok := schema.HasColumn(f.Field); !ok {
			missing = append(missing, f.Field)
		}
	}
	return missing
}
