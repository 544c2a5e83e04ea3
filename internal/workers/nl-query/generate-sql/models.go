package generatesql

type Input struct {
	Text  string `json:"text"`
	Table string `json:"table,omitempty"`
}

type Output struct {
	SQL          string   `json:"sql"`
	Table        string   `json:"table"`
	QuerySource  string   `json:"querySource"`
	Columns      []string `json:"columns"`
	SchemaStatus string   `json:"schemaStatus"`
}

const inputSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text":  {"type": "string", "minLength": 1, "maxLength": 2000},
		"table": {"type": "string"}
	}
}`
