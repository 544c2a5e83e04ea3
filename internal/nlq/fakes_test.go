package nlq

import (
	"context"
	"sync"
	"time"

	"nlq-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeStore struct {
	mu    sync.Mutex
	rows  map[string]*models.Row
	err   error
	calls []string
}

func (f *fakeStore) SampleRow(_ context.Context, table string) (*models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, table)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[table], nil
}

type fakeCache struct {
	mu      sync.Mutex
	schemas map[string]models.TableSchema
	ttls    map[string]time.Duration
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{schemas: map[string]models.TableSchema{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) GetSchema(_ context.Context, table string) (models.TableSchema, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.TableSchema{}, false, f.getErr
	}
	s, ok := f.schemas[table]
	return s, ok, nil
}

func (f *fakeCache) SetSchema(_ context.Context, schema models.TableSchema, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemas[schema.Table] = schema
	f.ttls[schema.Table] = ttl
	return nil
}

type fakeCompletion struct {
	text     string
	err      error
	template string
	vars     map[string]string
}

func (f *fakeCompletion) Complete(_ context.Context, template string, vars map[string]string) (string, error) {
	f.template = template
	f.vars = vars
	return f.text, f.err
}

func inventoryItemSchema() models.TableSchema {
	return models.TableSchema{
		Table:  models.TableInventoryItem,
		Status: models.SchemaAvailable,
		Fields: []models.Field{
			{Name: "id", Type: models.FieldTypeNumber},
			{Name: "name", Type: models.FieldTypeString},
			{Name: "quantity", Type: models.FieldTypeNumber},
			{Name: "location", Type: models.FieldTypeString},
			{Name: "sku", Type: models.FieldTypeString},
			{Name: "createdAt", Type: models.FieldTypeDate},
		},
	}
}
