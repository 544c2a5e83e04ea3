// internal/models/inventory.go
package models

import "strings"

// Tables of the inventory store that requests may target.
const (
	TableAuditLog         = "AuditLog"
	TableInventoryItem    = "InventoryItem"
	TableInventorySection = "InventorySection"
	TableStockTransaction = "StockTransaction"
)

// Row is one record in column order.
type Row struct {
	Columns []string
	Values  []interface{}
}

// SchemaStatus distinguishes an empty table from an unreachable store.
type SchemaStatus string

const (
	SchemaAvailable   SchemaStatus = "available"
	SchemaEmpty       SchemaStatus = "empty"
	SchemaUnavailable SchemaStatus = "unavailable"
)

// Coarse field types inferred from a sample row.
const (
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
	FieldTypeDate    = "date"
	FieldTypeUnknown = "unknown"
)

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchema is the introspected column list of one table.
type TableSchema struct {
	Table  string       `json:"table"`
	Fields []Field      `json:"fields"`
	Status SchemaStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`
}

// Columns returns field names in column order.
func (s TableSchema) Columns() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// HasColumn matches case-insensitively and returns the stored spelling.
func (s TableSchema) HasColumn(name string) (string, bool) {
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Name, true
		}
	}
	return "", false
}
