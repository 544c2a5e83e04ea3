package nlq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nlq-workers/internal/nlq/patterns"
)

func TestSelector_Select(t *testing.T) {
	s := NewSelector(patterns.Default())

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"known table", "@InventoryItem show items", "InventoryItem", true},
		{"marker mid-sentence", "show me @AuditLog entries", "AuditLog", true},
		{"case sensitive", "@inventoryitem show", "", false},
		{"unknown marker", "@Users list", "", false},
		{"first allowed marker wins", "@Foo @StockTransaction @AuditLog", "StockTransaction", true},
		{"no marker", "list everything", "", false},
		{"email-like text", "mail admin@InventorySection.example", "InventorySection", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Select(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_SelectTable(t *testing.T) {
	sess := NewSession(NewSelector(patterns.Default()))

	table, ok := sess.SelectTable("@InventoryItem show")
	assert.True(t, ok)
	assert.Equal(t, "InventoryItem", table)

	// same marker again leaves the state as it was
	sess.SelectTable("@InventoryItem show")
	assert.Equal(t, "InventoryItem", sess.Table())

	// unknown markers and plain text keep the selection
	_, ok = sess.SelectTable("@Nope")
	assert.False(t, ok)
	sess.SelectTable("show all")
	assert.Equal(t, "InventoryItem", sess.Table())

	sess.SelectTable("@AuditLog")
	assert.Equal(t, "AuditLog", sess.Table())

	sess.Reset()
	assert.Empty(t, sess.Table())
}
