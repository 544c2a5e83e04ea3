package nlq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

func TestSynthesizer_Synthesize(t *testing.T) {
	s := NewSynthesizer(patterns.Default())

	tests := []struct {
		name   string
		intent models.Intent
		text   string
		want   string
	}{
		{"count", models.IntentCount, "count items", "SELECT COUNT(*) FROM InventoryItem"},
		{"retrieve", models.IntentRetrieve, "show items", "SELECT * FROM InventoryItem LIMIT 10"},
		{"other intents select everything", models.IntentSort, "sort items", "SELECT * FROM InventoryItem"},
		{"none selects everything", models.IntentNone, "items", "SELECT * FROM InventoryItem"},
		{"numeric value stays bare", models.IntentRetrieve, "show items where quantity > 10", "SELECT * FROM InventoryItem LIMIT 10 WHERE quantity > 10"},
		{"text value is quoted", models.IntentRetrieve, "show items where name = Widget", "SELECT * FROM InventoryItem LIMIT 10 WHERE name = 'Widget'"},
		{"two character operator", models.IntentFilter, "where quantity >= 10", "SELECT * FROM InventoryItem WHERE quantity >= 10"},
		{"is operator kept verbatim", models.IntentFilter, "where location is Shelf A", "SELECT * FROM InventoryItem WHERE location is 'Shelf A'"},
		{"trigger without clause shape adds nothing", models.IntentRetrieve, "show items with stock", "SELECT * FROM InventoryItem LIMIT 10"},
		{"filter intent without clause shape adds nothing", models.IntentFilter, "filter by name", "SELECT * FROM InventoryItem"},
		{"count keeps its where clause", models.IntentCount, "count where quantity < 3", "SELECT COUNT(*) FROM InventoryItem WHERE quantity < 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Synthesize(tt.intent, "InventoryItem", tt.text)
			assert.Equal(t, tt.want, got.SQL)
			assert.Equal(t, "InventoryItem", got.Table)
			assert.Equal(t, models.QuerySourceRule, got.Source)
		})
	}
}
