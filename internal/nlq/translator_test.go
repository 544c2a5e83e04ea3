package nlq

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

func newTestTranslator(t *testing.T, store DataStore, client CompletionClient) *Translator {
	t.Helper()
	log := logger.NewTestLogger(t)
	opts := Options{Logger: log}
	if store != nil {
		opts.Introspector = NewIntrospector(store, nil, patterns.Default(), 0, log)
	}
	if client != nil {
		opts.Generator = NewGenerator(client, log)
	}
	return NewTranslator(opts)
}

func TestTranslator_EndToEnd(t *testing.T) {
	tr := newTestTranslator(t, nil, nil)

	got, err := tr.Translate(context.Background(), Request{Text: "@InventoryItem show items where quantity > 5"})
	require.NoError(t, err)

	assert.Equal(t, "InventoryItem", got.Table)
	assert.Equal(t, models.IntentRetrieve, got.Intent)
	assert.Equal(t, "SELECT * FROM InventoryItem LIMIT 10 WHERE quantity > 5", got.Query.SQL)
	// "where" doubles as a location synonym
	assert.Equal(t, Entities{
		{Field: "quantity", Synonym: "quantity"},
		{Field: "location", Synonym: "where"},
	}, got.Entities)
	assert.True(t, got.Range.IsZero())
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, tr.Library().Version(), got.Version)
}

func TestTranslator_TableResolution(t *testing.T) {
	tr := newTestTranslator(t, nil, nil)
	ctx := context.Background()

	got, err := tr.Translate(ctx, Request{Text: "count entries", Table: "AuditLog"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM AuditLog", got.Query.SQL)

	got, err = tr.Translate(ctx, Request{Text: "@StockTransaction list", Table: "AuditLog"})
	require.NoError(t, err)
	assert.Equal(t, "StockTransaction", got.Table)

	_, err = tr.Translate(ctx, Request{Text: "show items"})
	assert.ErrorIs(t, err, ErrNoTableSelected)

	_, err = tr.Translate(ctx, Request{Text: "show items", Table: "Users"})
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestTranslator_NoIntentDegradesToRetrieve(t *testing.T) {
	tr := newTestTranslator(t, nil, nil)

	got, err := tr.Translate(context.Background(), Request{Text: "inventory please", Table: "InventorySection"})
	require.NoError(t, err)
	assert.Equal(t, models.IntentNone, got.Intent)
	assert.Equal(t, "SELECT * FROM InventorySection LIMIT 10", got.Query.SQL)
}

func TestTranslator_Fallback(t *testing.T) {
	client := &fakeCompletion{text: "```sql\nSELECT action FROM AuditLog LIMIT 5\n```"}
	tr := newTestTranslator(t, nil, client)

	q := tr.Fallback(context.Background(), "recent actions", "AuditLog", []string{"id", "action"})
	assert.Equal(t, "SELECT action FROM AuditLog LIMIT 5", q.SQL)
	assert.Equal(t, models.QuerySourceLLM, q.Source)
	assert.NoError(t, tr.Check(q, []string{"id", "action"}))
	assert.Equal(t, "id, action", client.vars["columns"])
}

func TestTranslator_FallbackDisabled(t *testing.T) {
	tr := newTestTranslator(t, nil, nil)
	q := tr.Fallback(context.Background(), "recent actions", "AuditLog", nil)
	assert.Empty(t, q.SQL)
}

func TestTranslator_PlanAndIntrospect(t *testing.T) {
	store := &fakeStore{rows: map[string]*models.Row{
		"InventoryItem": {
			Columns: []string{"id", "name", "quantity"},
			Values:  []interface{}{int64(1), "Widget", int64(4)},
		},
	}}
	tr := newTestTranslator(t, store, nil)
	ctx := context.Background()

	got, err := tr.Translate(ctx, Request{Text: "@InventoryItem show name where quantity < 10"})
	require.NoError(t, err)

	schema := tr.Introspect(ctx, got.Table)
	require.Equal(t, models.SchemaAvailable, schema.Status)

	plan, err := tr.Plan(got, schema)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name", "quantity" FROM "InventoryItem" WHERE "quantity" < $1 LIMIT 20`, plan.SQL)
	assert.Equal(t, []interface{}{"10"}, plan.Args)
}

func TestTranslator_IntrospectWithoutStore(t *testing.T) {
	tr := newTestTranslator(t, nil, nil)
	assert.Equal(t, models.SchemaUnavailable, tr.Introspect(context.Background(), "AuditLog").Status)
}

func TestTranslator_ConcurrentRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := newTestTranslator(t, nil, nil)
	tables := []string{"AuditLog", "InventoryItem", "InventorySection", "StockTransaction"}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table := tables[i%len(tables)]
			got, err := tr.Translate(context.Background(), Request{Text: fmt.Sprintf("@%s count rows", table)})
			if assert.NoError(t, err) {
				assert.Equal(t, table, got.Table)
				assert.Equal(t, "SELECT COUNT(*) FROM "+table, got.Query.SQL)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "SELECT * FROM \"AuditLog\" LIMIT 5", PreviewPlan("AuditLog", 5).SQL)
}
