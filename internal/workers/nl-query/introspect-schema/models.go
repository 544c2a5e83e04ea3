package introspectschema

import "nlq-workers/internal/models"

type Input struct {
	// Tables defaults to every table in the allow-list.
	Tables []string `json:"tables,omitempty"`
}

type Output struct {
	Schemas     []models.TableSchema `json:"schemas"`
	Available   int                  `json:"available"`
	Empty       int                  `json:"empty"`
	Unavailable int                  `json:"unavailable"`
}

const inputSchema = `{
	"type": "object",
	"properties": {
		"tables": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"uniqueItems": true
		}
	}
}`
