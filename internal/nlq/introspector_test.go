package nlq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

func TestIntrospector_Introspect(t *testing.T) {
	created := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: map[string]*models.Row{
		"InventoryItem": {
			Columns: []string{"id", "name", "quantity", "price", "createdAt", "archived", "notes"},
			Values:  []interface{}{int64(1), "Widget", int64(12), []byte("9.99"), created, false, nil},
		},
	}}
	in := NewIntrospector(store, nil, patterns.Default(), 0, logger.NewTestLogger(t))

	schema := in.Introspect(context.Background(), "InventoryItem")

	assert.Equal(t, models.SchemaAvailable, schema.Status)
	assert.Equal(t, []models.Field{
		{Name: "id", Type: "number"},
		{Name: "name", Type: "string"},
		{Name: "quantity", Type: "number"},
		{Name: "price", Type: "number"},
		{Name: "createdAt", Type: "date"},
		{Name: "archived", Type: "boolean"},
		{Name: "notes", Type: "unknown"},
	}, schema.Fields)
}

func TestIntrospector_EmptyTable(t *testing.T) {
	in := NewIntrospector(&fakeStore{}, nil, patterns.Default(), 0, logger.NewNoOpLogger())

	schema := in.Introspect(context.Background(), "AuditLog")
	assert.Equal(t, models.SchemaEmpty, schema.Status)
	assert.Empty(t, schema.Fields)
}

func TestIntrospector_StoreUnavailable(t *testing.T) {
	store := &fakeStore{err: errors.New("dial tcp: connection refused")}
	in := NewIntrospector(store, nil, patterns.Default(), 0, logger.NewNoOpLogger())

	schema := in.Introspect(context.Background(), "StockTransaction")
	assert.Equal(t, models.SchemaUnavailable, schema.Status)
	assert.Empty(t, schema.Fields)
	assert.Contains(t, schema.Reason, "connection refused")
}

func TestIntrospector_RejectsUnknownTable(t *testing.T) {
	store := &fakeStore{}
	in := NewIntrospector(store, nil, patterns.Default(), 0, logger.NewNoOpLogger())

	schema := in.Introspect(context.Background(), `Users"; DROP TABLE x`)
	assert.Equal(t, models.SchemaUnavailable, schema.Status)
	assert.Empty(t, store.calls)
}

func TestIntrospector_Cache(t *testing.T) {
	store := &fakeStore{rows: map[string]*models.Row{
		"InventorySection": {Columns: []string{"id", "name"}, Values: []interface{}{int64(1), "Tools"}},
	}}
	cache := newFakeCache()
	in := NewIntrospector(store, cache, patterns.Default(), time.Minute, logger.NewNoOpLogger())

	first := in.Introspect(context.Background(), "InventorySection")
	second := in.Introspect(context.Background(), "InventorySection")

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"InventorySection"}, store.calls)
	assert.Equal(t, time.Minute, cache.ttls["InventorySection"])
}

func TestIntrospector_CacheFailureFallsThrough(t *testing.T) {
	store := &fakeStore{rows: map[string]*models.Row{
		"AuditLog": {Columns: []string{"id"}, Values: []interface{}{int64(7)}},
	}}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	in := NewIntrospector(store, cache, patterns.Default(), time.Minute, logger.NewNoOpLogger())

	schema := in.Introspect(context.Background(), "AuditLog")
	assert.Equal(t, models.SchemaAvailable, schema.Status)
	assert.Len(t, store.calls, 1)
}

func TestIntrospector_IntrospectAll(t *testing.T) {
	store := &fakeStore{rows: map[string]*models.Row{
		"AuditLog":      {Columns: []string{"id"}, Values: []interface{}{int64(1)}},
		"InventoryItem": {Columns: []string{"id"}, Values: []interface{}{int64(2)}},
	}}
	in := NewIntrospector(store, nil, patterns.Default(), 0, logger.NewNoOpLogger())

	tables := []string{"AuditLog", "InventoryItem", "InventorySection", "Nope"}
	got := in.IntrospectAll(context.Background(), tables)

	require.Len(t, got, 4)
	for i, table := range tables {
		assert.Equal(t, table, got[i].Table)
	}
	assert.Equal(t, models.SchemaAvailable, got[0].Status)
	assert.Equal(t, models.SchemaAvailable, got[1].Status)
	assert.Equal(t, models.SchemaEmpty, got[2].Status)
	assert.Equal(t, models.SchemaUnavailable, got[3].Status)
}

func TestCoarseType(t *testing.T) {
	assert.Equal(t, "string", CoarseType([]byte("abc")))
	assert.Equal(t, "number", CoarseType(float32(1.5)))
	assert.Equal(t, "number", CoarseType(uint8(3)))
	assert.Equal(t, "string", CoarseType(struct{}{}))
}
