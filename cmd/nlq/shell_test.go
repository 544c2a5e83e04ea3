package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlq-workers/internal/common/database"
	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/nlq"
	"nlq-workers/internal/nlq/patterns"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeQuerier struct {
	queries []string
	result  *database.ResultSet
	err     error
}

func (f *fakeQuerier) Query(_ context.Context, _ int, query string, _ ...interface{}) (*database.ResultSet, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestShell(t *testing.T, store querier) (*shell, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	tr := nlq.NewTranslator(nlq.Options{Library: patterns.Default(), Logger: logger.NewTestLogger(t)})
	return newShell(tr, store, out), out
}

func TestShell_SelectPreviewsTable(t *testing.T) {
	store := &fakeQuerier{result: &database.ResultSet{
		Columns: []string{"id", "name"},
		Rows:    []map[string]interface{}{{"id": int64(1), "name": "bolt"}},
	}}
	sh, out := newTestShell(t, store)

	require.NoError(t, sh.run(context.Background(), strings.NewReader("@InventoryItem\n")))

	assert.Equal(t, []string{`SELECT * FROM "InventoryItem" LIMIT 5`}, store.queries)
	assert.Equal(t, "InventoryItem", sh.session.Table())
	assert.Contains(t, out.String(), "selected InventoryItem")
	assert.Contains(t, out.String(), "bolt")
	assert.Contains(t, out.String(), "(1 rows)")
	assert.Contains(t, out.String(), "nlq[InventoryItem]> ")
}

func TestShell_TranslatesAgainstStickyTable(t *testing.T) {
	sh, out := newTestShell(t, nil)

	input := "@AuditLog\ncount entries\nexit\n@InventoryItem\n"
	require.NoError(t, sh.run(context.Background(), strings.NewReader(input)))

	assert.Contains(t, out.String(), "intent:   count")
	assert.Contains(t, out.String(), "sql:      SELECT COUNT(*) FROM AuditLog")
	// nothing after exit is read
	assert.Equal(t, "AuditLog", sh.session.Table())
}

func TestShell_MarkerWithTextTranslates(t *testing.T) {
	store := &fakeQuerier{}
	sh, out := newTestShell(t, store)

	require.NoError(t, sh.run(context.Background(), strings.NewReader("@InventoryItem show items where quantity > 5\n")))

	assert.Empty(t, store.queries)
	assert.Contains(t, out.String(), "WHERE quantity > 5")
	assert.Equal(t, "InventoryItem", sh.session.Table())
}

func TestShell_NoTableSelected(t *testing.T) {
	sh, out := newTestShell(t, nil)

	require.NoError(t, sh.run(context.Background(), strings.NewReader("count entries\n")))
	assert.Contains(t, out.String(), "no table selected; start with one of: @AuditLog, @InventoryItem")
}

func TestShell_ExecuteWithoutStore(t *testing.T) {
	sh, out := newTestShell(t, nil)
	sh.execute = true

	require.NoError(t, sh.run(context.Background(), strings.NewReader("@AuditLog count entries\n")))
	assert.Contains(t, out.String(), "execution unavailable")
}

func TestShell_PreviewFailure(t *testing.T) {
	sh, out := newTestShell(t, &fakeQuerier{err: assert.AnError})

	require.NoError(t, sh.run(context.Background(), strings.NewReader("@StockTransaction\n")))
	assert.Contains(t, out.String(), "preview failed")
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, &database.ResultSet{Rows: []map[string]interface{}{}})
	assert.Equal(t, "(no rows)\n", out.String())

	out.Reset()
	printResult(&out, &database.ResultSet{
		Rows:      []map[string]interface{}{{"b": 2, "a": 1}},
		Truncated: true,
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a  b", lines[0])
	assert.Equal(t, "1  2", lines[1])
	assert.Equal(t, "(1 rows, truncated)", lines[2])
}
