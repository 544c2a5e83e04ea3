// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

// Input carries a candidate query. An empty SQL previews the table instead.
type Input struct {
	SQL         string        `json:"sql,omitempty"`
	Args        []interface{} `json:"args,omitempty"`
	Table       string        `json:"table"`
	QuerySource string        `json:"querySource,omitempty"`
	MaxRows     int           `json:"maxRows,omitempty"`
}

type Output struct {
	Columns            []string                 `json:"columns"`
	Data               []map[string]interface{} `json:"data"`
	RowCount           int                      `json:"rowCount"`
	Truncated          bool                     `json:"truncated"`
	QueryExecutionTime int64                    `json:"queryExecutionTime"` // milliseconds
}

const inputSchema = `{
	"type": "object",
	"required": ["table"],
	"properties": {
		"sql":         {"type": "string"},
		"args":        {"type": "array"},
		"table":       {"type": "string", "minLength": 1},
		"querySource": {"type": "string", "enum": ["rule", "llm", "planner"]},
		"maxRows":     {"type": "integer", "minimum": 1}
	}
}`
