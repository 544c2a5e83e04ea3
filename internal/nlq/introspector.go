package nlq

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

// DataStore is the slice of the inventory store the translator reads from.
type DataStore interface {
	// SampleRow returns one arbitrary row of table, or nil when the table is empty.
	SampleRow(ctx context.Context, table string) (*models.Row, error)
}

// SchemaCache keeps introspected schemas between requests.
type SchemaCache interface {
	GetSchema(ctx context.Context, table string) (models.TableSchema, bool, error)
	SetSchema(ctx context.Context, schema models.TableSchema, ttl time.Duration) error
}

// Introspector derives a table's field list from one sample row.
type Introspector struct {
	store DataStore
	cache SchemaCache
	lib   *patterns.Library
	ttl   time.Duration
	log   logger.Logger
}

// NewIntrospector accepts a nil cache.
func NewIntrospector(store DataStore, cache SchemaCache, lib *patterns.Library, ttl time.Duration, log logger.Logger) *Introspector {
	return &Introspector{store: store, cache: cache, lib: lib, ttl: ttl, log: log}
}

// Introspect never fails: store errors come back as SchemaUnavailable and an empty table
// as SchemaEmpty, with no fields in either case.
func (in *Introspector) Introspect(ctx context.Context, table string) models.TableSchema {
	if !in.lib.IsTable(table) {
		return models.TableSchema{Table: table, Status: models.SchemaUnavailable, Reason: "table is not in the allow-list"}
	}

	if in.cache != nil {
		cached, ok, err := in.cache.GetSchema(ctx, table)
		if err != nil {
			in.log.Warn("schema cache read failed", map[string]interface{}{"table": table, "error": err.Error()})
		} else if ok {
			return cached
		}
	}

	if in.store == nil {
		return models.TableSchema{Table: table, Status: models.SchemaUnavailable, Reason: "data store not configured"}
	}

	row, err := in.store.SampleRow(ctx, table)
	if err != nil {
		in.log.Error("schema introspection failed", map[string]interface{}{"table": table, "error": err.Error()})
		return models.TableSchema{Table: table, Status: models.SchemaUnavailable, Reason: err.Error()}
	}
	if row == nil {
		return models.TableSchema{Table: table, Status: models.SchemaEmpty, Fields: []models.Field{}}
	}

	schema := models.TableSchema{Table: table, Status: models.SchemaAvailable, Fields: make([]models.Field, 0, len(row.Columns))}
	for i, col := range row.Columns {
		var v interface{}
		if i < len(row.Values) {
			v = row.Values[i]
		}
		schema.Fields = append(schema.Fields, models.Field{Name: col, Type: CoarseType(v)})
	}

	if missing := in.lib.Validate(schema); len(missing) > 0 {
		in.log.Warn("synonym fields missing from table schema", map[string]interface{}{
			"table":          table,
			"missingFields":  missing,
			"patternVersion": in.lib.Version(),
		})
	}

	if in.cache != nil && in.ttl > 0 {
		if err := in.cache.SetSchema(ctx, schema, in.ttl); err != nil {
			in.log.Warn("schema cache write failed", map[string]interface{}{"table": table, "error": err.Error()})
		}
	}
	return schema
}

// IntrospectAll introspects tables concurrently.
func (in *Introspector) IntrospectAll(ctx context.Context, tables []string) []models.TableSchema {
	out := make([]models.TableSchema, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, table := range tables {
		g.Go(func() error {
			out[i] = in.Introspect(gctx, table)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CoarseType labels a driver value as string, number, boolean or date.
func CoarseType(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return models.FieldTypeUnknown
	case string:
		return models.FieldTypeString
	case []byte:
		if _, err := strconv.ParseFloat(string(val), 64); err == nil {
			return models.FieldTypeNumber
		}
		return models.FieldTypeString
	case bool:
		return models.FieldTypeBoolean
	case time.Time:
		return models.FieldTypeDate
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return models.FieldTypeNumber
	default:
		return models.FieldTypeString
	}
}
