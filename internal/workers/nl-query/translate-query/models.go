package translatequery

import (
	"nlq-workers/internal/models"
)

type Input struct {
	Text  string `json:"text"`
	Table string `json:"table,omitempty"`
	// Plan also introspects the table and returns a parameterized query.
	Plan bool `json:"plan,omitempty"`
}

type Output struct {
	TranslationID   string               `json:"translationId"`
	Table           string               `json:"table"`
	Tokens          []string             `json:"tokens"`
	Intent          string               `json:"intent"`
	Entities        map[string]string    `json:"entities"`
	Range           models.DateTimeRange `json:"range"`
	SQL             string               `json:"sql"`
	QuerySource     string               `json:"querySource"`
	// QueryAccepted is false when SQL does not parse as one read-only SELECT. Rule
	// text with a WHERE clause never does; Plan carries the runnable form.
	QueryAccepted   bool                 `json:"queryAccepted"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	Plan            *models.QueryPlan    `json:"plan,omitempty"`
	SchemaStatus    string               `json:"schemaStatus,omitempty"`
	PatternVersion  string               `json:"patternVersion"`
}

const inputSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text":  {"type": "string", "minLength": 1, "maxLength": 2000},
		"table": {"type": "string"},
		"plan":  {"type": "boolean"}
	}
}`
