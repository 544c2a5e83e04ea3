// internal/models/query_types.go
package models

// Intent is the coarse action a natural-language request asks for.
type Intent string

const (
	IntentNone     Intent = ""
	IntentRetrieve Intent = "retrieve"
	IntentCount    Intent = "count"
	IntentFilter   Intent = "filter"
	IntentSort     Intent = "sort"
	IntentLimit    Intent = "limit"
)

func (i Intent) String() string {
	if i == IntentNone {
		return "none"
	}
	return string(i)
}

// QuerySource records which path produced a query string.
type QuerySource string

const (
	QuerySourceRule    QuerySource = "rule"
	QuerySourceLLM     QuerySource = "llm"
	QuerySourcePlanner QuerySource = "planner"
)

// SynthesizedQuery is a candidate query. It is never executed without passing the guard.
type SynthesizedQuery struct {
	SQL    string      `json:"sql"`
	Table  string      `json:"table"`
	Intent Intent      `json:"intent"`
	Source QuerySource `json:"source"`
}

// QueryPlan is an executable, parameterized query.
type QueryPlan struct {
	SQL     string        `json:"sql"`
	Args    []interface{} `json:"args,omitempty"`
	Table   string        `json:"table"`
	Columns []string      `json:"columns,omitempty"`
	Limit   int           `json:"limit"`
}

// DateTimeRange holds raw date/time literals lifted from a range phrase.
// An empty string means the bound was not found.
type DateTimeRange struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// IsZero reports whether no bound was extracted.
func (r DateTimeRange) IsZero() bool {
	return r.StartDate == "" && r.EndDate == "" && r.StartTime == "" && r.EndTime == ""
}
