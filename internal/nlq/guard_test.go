package nlq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_Check(t *testing.T) {
	g := NewGuard()
	columns := []string{"id", "name", "quantity", "location", "sku", "createdAt"}

	tests := []struct {
		name    string
		sql     string
		columns []string
		wantErr string
	}{
		{name: "plain select", sql: "SELECT * FROM InventoryItem LIMIT 10"},
		{name: "trailing semicolon", sql: "SELECT COUNT(*) FROM InventoryItem;"},
		{name: "known columns", sql: "SELECT name, quantity FROM InventoryItem WHERE quantity > 5 ORDER BY name DESC LIMIT 10", columns: columns},
		{name: "quoted identifiers", sql: `SELECT "name" FROM "InventoryItem" WHERE "sku" ILIKE $1 LIMIT 20`, columns: columns},
		{name: "keyword inside literal", sql: "SELECT * FROM InventoryItem WHERE name = 'drop table; -- it''s fine'", columns: columns},
		{name: "alias", sql: "SELECT COUNT(*) AS total FROM InventoryItem", columns: columns},
		{name: "table name matches case-insensitively", sql: "select * from inventoryitem"},
		{name: "dollar quoted value", sql: "SELECT name FROM InventoryItem WHERE name = $$it's fine$$", columns: columns},
		{name: "comments are ignored", sql: "SELECT name FROM InventoryItem -- newest first\nORDER BY name", columns: columns},
		{name: "order by alias", sql: "SELECT COUNT(*) AS total FROM InventoryItem GROUP BY location ORDER BY total DESC", columns: columns},
		{name: "table alias", sql: "SELECT i.name FROM InventoryItem i", columns: columns},
		{name: "trim resolves to a catalog function", sql: "SELECT name FROM InventoryItem WHERE trim(name) = 'bolt'", columns: columns},

		{name: "empty", sql: "   ", wantErr: "empty query"},
		{name: "only a semicolon", sql: ";", wantErr: "empty query"},
		{name: "not a select", sql: "DELETE FROM InventoryItem", wantErr: "only SELECT"},
		{name: "stacked statement", sql: "SELECT * FROM InventoryItem; DROP TABLE AuditLog", wantErr: "multiple statements"},
		{name: "dollar quoted literal hides a statement", sql: "SELECT * FROM InventoryItem WHERE name = $$'$$; DROP TABLE InventoryItem; --'", wantErr: "multiple statements"},
		{name: "tagged dollar quote hides a statement", sql: "SELECT * FROM InventoryItem WHERE name = $q$'$q$; DELETE FROM InventoryItem; --'", columns: columns, wantErr: "multiple statements"},
		{name: "escape string hides a statement", sql: `SELECT * FROM InventoryItem WHERE name = E'\''; DROP TABLE InventoryItem; --'`, wantErr: "multiple statements"},
		{name: "escape string hides a statement with columns", sql: `SELECT name FROM InventoryItem WHERE name = e'\''; DROP TABLE InventoryItem; --'`, columns: columns, wantErr: "multiple statements"},
		{name: "limit before where", sql: "SELECT * FROM InventoryItem LIMIT 10 WHERE quantity > 5", wantErr: "syntax error"},
		{name: "union", sql: "SELECT * FROM InventoryItem UNION SELECT * FROM AuditLog", wantErr: "UNION"},
		{name: "select into", sql: "SELECT * INTO copy FROM InventoryItem", wantErr: "INTO"},
		{name: "cte", sql: "WITH x AS (SELECT * FROM AuditLog) SELECT * FROM InventoryItem", wantErr: "WITH"},
		{name: "row lock", sql: "SELECT * FROM InventoryItem FOR UPDATE", wantErr: "locking"},
		{name: "other table", sql: "SELECT * FROM AuditLog", wantErr: "selected table is InventoryItem"},
		{name: "two tables", sql: "SELECT * FROM InventoryItem, AuditLog", wantErr: "exactly one FROM"},
		{name: "join", sql: "SELECT * FROM InventoryItem JOIN AuditLog ON true", wantErr: "JOIN"},
		{name: "other schema", sql: "SELECT * FROM pg_catalog.InventoryItem", wantErr: "schema"},
		{name: "subquery", sql: "SELECT * FROM InventoryItem WHERE id = (SELECT id FROM InventoryItem)", wantErr: "subqueries"},
		{name: "unknown column", sql: "SELECT password FROM InventoryItem", columns: columns, wantErr: "unknown identifier password"},
		{name: "unterminated literal", sql: "SELECT * FROM InventoryItem WHERE name = 'x", wantErr: "unterminated"},
		{name: "sleep", sql: "SELECT pg_sleep(10) FROM InventoryItem", wantErr: "PG_SLEEP"},
		{name: "file read", sql: "SELECT pg_read_file('/etc/passwd') FROM InventoryItem", columns: columns, wantErr: "PG_READ_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check(tt.sql, "InventoryItem", tt.columns)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrQueryRejected)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "Here you go:\n```sql\nSELECT * FROM InventoryItem;\n```\nEnjoy.", "SELECT * FROM InventoryItem;"},
		{"leading prose", "Sure! SELECT COUNT(*) FROM AuditLog", "SELECT COUNT(*) FROM AuditLog"},
		{"plain", "  select * from StockTransaction  ", "select * from StockTransaction"},
		{"no select", "I cannot help with that.", "I cannot help with that."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSQL(tt.in))
		})
	}
}
