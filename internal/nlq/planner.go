package nlq

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

var (
	conditionPattern = regexp.MustCompile(`(?i)\b(?:where|with|having|and)\s+(\w+)(?:\s*(>=|<=|!=|=|>|<)\s*|\s+(is greater than|is less than|greater than|less than|is not|is|containing|contains|starts with|starting with|ends with|ending with)\s+)("[^"]*"|'[^']*'|[\w.:\-]+)`)
	sortPattern      = regexp.MustCompile(`(?i)\b(?:sort|order)(?:ed)?\s+by\s+(\w+)(?:\s+(asc|desc))?`)
	limitPattern     = regexp.MustCompile(`(?i)\b(?:limit|top|first)\s+(\d+)`)
	likeEscaper      = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

var wordOperators = map[string]string{
	"is":              "=",
	"is not":          "!=",
	"greater than":    ">",
	"is greater than": ">",
	"less than":       "<",
	"is less than":    "<",
	"contains":        "ILIKE",
	"containing":      "ILIKE",
	"starts with":     "ILIKE",
	"starting with":   "ILIKE",
	"ends with":       "ILIKE",
	"ending with":     "ILIKE",
}

type PlannerConfig struct {
	DefaultLimit int
	MaxLimit     int
	Location     *time.Location
}

// Planner builds parameterized, executable queries. Every identifier it emits comes from
// the introspected schema and every user value is bound as a parameter.
type Planner struct {
	lib    *patterns.Library
	ranges *RangeExtractor
	cfg    PlannerConfig
}

func NewPlanner(lib *patterns.Library, cfg PlannerConfig) *Planner {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Planner{lib: lib, ranges: NewRangeExtractor(lib), cfg: cfg}
}

type condition struct {
	column string
	op     string
	value  interface{}
}

// Plan renders text as a query over table. Conditions, sort keys and selected fields that
// are not columns of schema are dropped; with no usable schema only the limit survives.
func (p *Planner) Plan(text, table string, intent models.Intent, entities Entities, schema models.TableSchema) (models.QueryPlan, error) {
	if table == "" {
		return models.QueryPlan{}, ErrNoTableSelected
	}
	if !p.lib.IsTable(table) {
		return models.QueryPlan{}, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	usable := schema.Status == models.SchemaAvailable
	plan := models.QueryPlan{Table: table}

	var conds []condition
	if usable {
		conds = append(conds, p.rangeConditions(text, schema)...)
		conds = append(conds, p.textConditions(text, schema)...)
	}

	var b strings.Builder
	if intent == models.IntentCount {
		b.WriteString("SELECT COUNT(*) FROM ")
	} else {
		b.WriteString("SELECT ")
		b.WriteString(p.selectList(entities, schema, usable, &plan))
		b.WriteString(" FROM ")
	}
	b.WriteString(pq.QuoteIdentifier(table))

	for i, c := range conds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		plan.Args = append(plan.Args, c.value)
		fmt.Fprintf(&b, "%s %s $%d", pq.QuoteIdentifier(c.column), c.op, len(plan.Args))
	}

	if intent == models.IntentCount {
		plan.SQL = b.String()
		return plan, nil
	}

	if usable {
		if m := sortPattern.FindStringSubmatch(text); m != nil {
			if col, ok := schema.HasColumn(m[1]); ok {
				dir := "ASC"
				if strings.EqualFold(m[2], "desc") {
					dir = "DESC"
				}
				fmt.Fprintf(&b, " ORDER BY %s %s", pq.QuoteIdentifier(col), dir)
			}
		}
	}

	plan.Limit = p.limit(text)
	fmt.Fprintf(&b, " LIMIT %d", plan.Limit)
	plan.SQL = b.String()
	return plan, nil
}

func (p *Planner) selectList(entities Entities, schema models.TableSchema, usable bool, plan *models.QueryPlan) string {
	if !usable {
		return "*"
	}
	var quoted []string
	for _, f := range entities.Fields() {
		if col, ok := schema.HasColumn(f); ok {
			plan.Columns = append(plan.Columns, col)
			quoted = append(quoted, pq.QuoteIdentifier(col))
		}
	}
	if len(quoted) == 0 {
		return "*"
	}
	return strings.Join(quoted, ", ")
}

func (p *Planner) rangeConditions(text string, schema models.TableSchema) []condition {
	var column string
	for _, f := range schema.Fields {
		if p.lib.IsTimestampColumn(f.Name) {
			column = f.Name
			break
		}
	}
	if column == "" {
		return nil
	}

	resolved, ok := ResolveRange(p.ranges.ExtractPrecise(text), p.cfg.Location)
	if !ok {
		return nil
	}
	var out []condition
	if resolved.Start != nil {
		out = append(out, condition{column: column, op: ">=", value: *resolved.Start})
	}
	if resolved.End != nil {
		out = append(out, condition{column: column, op: "<=", value: *resolved.End})
	}
	return out
}

func (p *Planner) textConditions(text string, schema models.TableSchema) []condition {
	var out []condition
	for _, m := range conditionPattern.FindAllStringSubmatch(text, -1) {
		col, ok := schema.HasColumn(m[1])
		if !ok {
			continue
		}
		raw := strings.Trim(m[4], `"'`)

		if m[2] != "" {
			out = append(out, condition{column: col, op: m[2], value: raw})
			continue
		}

		word := strings.ToLower(strings.Join(strings.Fields(m[3]), " "))
		op := wordOperators[word]
		var value interface{} = raw
		switch word {
		case "contains", "containing":
			value = "%" + likeEscaper.Replace(raw) + "%"
		case "starts with", "starting with":
			value = likeEscaper.Replace(raw) + "%"
		case "ends with", "ending with":
			value = "%" + likeEscaper.Replace(raw)
		}
		out = append(out, condition{column: col, op: op, value: value})
	}
	return out
}

func (p *Planner) limit(text string) int {
	limit := p.cfg.DefaultLimit
	if m := limitPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > p.cfg.MaxLimit {
		limit = p.cfg.MaxLimit
	}
	return limit
}
