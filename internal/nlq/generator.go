package nlq

import (
	"context"
	"strings"

	"nlq-workers/internal/common/logger"
)

// PromptTemplate is sent verbatim with its variables; the completion service fills it.
const PromptTemplate = "Given the following user query, extract the intent, entities, and generate a SQL query for the table {tableName} with columns {columns}. Query: {query}"

// CompletionClient is a language-model completion service.
type CompletionClient interface {
	Complete(ctx context.Context, template string, vars map[string]string) (string, error)
}

// Generator asks a completion service for a query. The returned text is untrusted.
type Generator struct {
	client CompletionClient
	log    logger.Logger
}

// NewGenerator accepts a nil client; Generate then always returns "".
func NewGenerator(client CompletionClient, log logger.Logger) *Generator {
	if client == nil {
		log.Warn("completion client not initialized, LLM generation disabled", nil)
	}
	return &Generator{client: client, log: log}
}

func (g *Generator) Enabled() bool { return g.client != nil }

// Generate returns the completion text as-is, or "" when no client is configured or the
// call fails.
func (g *Generator) Generate(ctx context.Context, query, table string, columns []string) string {
	if g.client == nil {
		return ""
	}
	text, err := g.client.Complete(ctx, PromptTemplate, PromptVariables(query, table, columns))
	if err != nil {
		g.log.Error("LLM query generation failed", map[string]interface{}{
			"table": table,
			"error": err.Error(),
		})
		return ""
	}
	return text
}

// PromptVariables binds the template placeholders.
func PromptVariables(query, table string, columns []string) map[string]string {
	return map[string]string{
		"query":     query,
		"tableName": table,
		"columns":   strings.Join(columns, ", "),
	}
}
