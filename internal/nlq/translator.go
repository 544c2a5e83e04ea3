// Package nlq translates plain-language inventory requests into candidate queries.
//
// The text components (normalizer, classifier, extractors, synthesizer) are pure and safe
// for concurrent use. The selected table is always a per-request value; Session offers
// sticky selection to single-user callers such as the REPL.
package nlq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/common/metrics"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

var (
	ErrNoTableSelected = errors.New("NO_TABLE_SELECTED")
	ErrUnknownTable    = errors.New("UNKNOWN_TABLE")
	ErrEmptyCompletion = errors.New("LLM_GENERATION_EMPTY")
)

const tracerName = "nlq-workers/internal/nlq"

// Request is one translation request. Table may be empty when Text carries an @Table marker.
type Request struct {
	Text  string
	Table string
}

// Translation is everything the rule-based path derived from a request.
type Translation struct {
	ID         string                  `json:"id"`
	Text       string                  `json:"text"`
	Table      string                  `json:"table"`
	Tokens     []string                `json:"tokens"`
	Intent     models.Intent           `json:"intent"`
	Entities   Entities                `json:"entities"`
	Range      models.DateTimeRange    `json:"range"`
	LooseDates []string                `json:"looseDates,omitempty"`
	LooseTimes []string                `json:"looseTimes,omitempty"`
	Query      models.SynthesizedQuery `json:"query"`
	Version    string                  `json:"patternVersion"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// Translator wires the pipeline together.
type Translator struct {
	lib          *patterns.Library
	normalizer   *Normalizer
	selector     *Selector
	classifier   *Classifier
	extractor    *Extractor
	ranges       *RangeExtractor
	synthesizer  *Synthesizer
	planner      *Planner
	guard        *Guard
	introspector *Introspector
	generator    *Generator
	log          logger.Logger
	tracer       trace.Tracer
}

type Options struct {
	Library      *patterns.Library
	Introspector *Introspector
	Generator    *Generator
	Planner      PlannerConfig
	Logger       logger.Logger
}

func NewTranslator(opts Options) *Translator {
	lib := opts.Library
	if lib == nil {
		lib = patterns.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	gen := opts.Generator
	if gen == nil {
		gen = NewGenerator(nil, log)
	}
	return &Translator{
		lib:          lib,
		normalizer:   NewNormalizer(lib),
		selector:     NewSelector(lib),
		classifier:   NewClassifier(lib),
		extractor:    NewExtractor(lib),
		ranges:       NewRangeExtractor(lib),
		synthesizer:  NewSynthesizer(lib),
		planner:      NewPlanner(lib, opts.Planner),
		guard:        NewGuard(),
		introspector: opts.Introspector,
		generator:    gen,
		log:          log,
		tracer:       otel.Tracer(tracerName),
	}
}

func (t *Translator) Library() *patterns.Library { return t.lib }
func (t *Translator) Selector() *Selector         { return t.selector }
func (t *Translator) Guard() *Guard               { return t.guard }

// Introspector may be nil.
func (t *Translator) Introspector() *Introspector { return t.introspector }

// ResolveTable prefers an @Table marker in text over the explicit table.
func (t *Translator) ResolveTable(req Request) (string, error) {
	if table, ok := t.selector.Select(req.Text); ok {
		return table, nil
	}
	if req.Table == "" {
		return "", ErrNoTableSelected
	}
	if !t.lib.IsTable(req.Table) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTable, req.Table)
	}
	return req.Table, nil
}

// Translate runs the rule-based pipeline. The only errors are a missing or unknown table;
// every vocabulary miss degrades to a default.
func (t *Translator) Translate(ctx context.Context, req Request) (*Translation, error) {
	_, span := t.tracer.Start(ctx, "nlq.Translate")
	defer span.End()

	table, err := t.ResolveTable(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tokens := t.normalizer.Normalize(req.Text)
	intent := t.classifier.Classify(tokens)
	synthIntent := intent
	if synthIntent == models.IntentNone {
		synthIntent = models.IntentRetrieve
	}
	dates, times := t.ranges.Loose(req.Text)

	tr := &Translation{
		ID:         uuid.NewString(),
		Text:       req.Text,
		Table:      table,
		Tokens:     tokens,
		Intent:     intent,
		Entities:   t.extractor.Extract(tokens, table),
		Range:      t.ranges.Extract(req.Text),
		LooseDates: dates,
		LooseTimes: times,
		Query:      t.synthesizer.Synthesize(synthIntent, table, req.Text),
		Version:    t.lib.Version(),
		CreatedAt:  time.Now().UTC(),
	}

	span.SetAttributes(
		attribute.String("nlq.table", table),
		attribute.String("nlq.intent", intent.String()),
		attribute.Int("nlq.entities", len(tr.Entities)),
	)
	metrics.Translations.WithLabelValues(intent.String(), string(models.QuerySourceRule)).Inc()

	t.log.Debug("translated request", map[string]interface{}{
		"translationId": tr.ID,
		"table":         table,
		"intent":        intent.String(),
		"sql":           tr.Query.SQL,
	})
	return tr, nil
}

// Introspect returns the schema of table, or SchemaUnavailable without an introspector.
func (t *Translator) Introspect(ctx context.Context, table string) models.TableSchema {
	ctx, span := t.tracer.Start(ctx, "nlq.Introspect", trace.WithAttributes(attribute.String("nlq.table", table)))
	defer span.End()

	var schema models.TableSchema
	if t.introspector == nil {
		schema = models.TableSchema{Table: table, Status: models.SchemaUnavailable, Reason: "introspection not configured"}
	} else {
		schema = t.introspector.Introspect(ctx, table)
	}
	span.SetAttributes(attribute.String("nlq.schema_status", string(schema.Status)))
	metrics.Introspections.WithLabelValues(string(schema.Status)).Inc()
	return schema
}

// Fallback asks the language model for a query over table. The result has passed through
// ExtractSQL but not the guard; an empty SQL means nothing usable came back.
func (t *Translator) Fallback(ctx context.Context, text, table string, columns []string) models.SynthesizedQuery {
	ctx, span := t.tracer.Start(ctx, "nlq.Fallback", trace.WithAttributes(attribute.String("nlq.table", table)))
	defer span.End()

	start := time.Now()
	completion := t.generator.Generate(ctx, text, table, columns)
	metrics.LLMLatency.Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case !t.generator.Enabled():
		outcome = "disabled"
	case completion == "":
		outcome = "empty"
	}
	metrics.LLMGenerations.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		metrics.Translations.WithLabelValues(models.IntentNone.String(), string(models.QuerySourceLLM)).Inc()
	}

	return models.SynthesizedQuery{
		SQL:    ExtractSQL(completion),
		Table:  table,
		Source: models.QuerySourceLLM,
	}
}

// Plan builds the executable form of a translation against its table's schema.
func (t *Translator) Plan(tr *Translation, schema models.TableSchema) (models.QueryPlan, error) {
	plan, err := t.planner.Plan(tr.Text, tr.Table, tr.Intent, tr.Entities, schema)
	if err != nil {
		return models.QueryPlan{}, err
	}
	if err := t.guard.Check(plan.SQL, plan.Table, schema.Columns()); err != nil {
		metrics.QueriesRejected.WithLabelValues(string(models.QuerySourcePlanner)).Inc()
		return models.QueryPlan{}, err
	}
	return plan, nil
}

// Check runs the guard and counts rejections by source.
func (t *Translator) Check(q models.SynthesizedQuery, columns []string) error {
	if err := t.guard.Check(q.SQL, q.Table, columns); err != nil {
		metrics.QueriesRejected.WithLabelValues(string(q.Source)).Inc()
		return err
	}
	return nil
}

// PreviewPlan is the sample query run when a table is first selected.
func PreviewPlan(table string, rows int) models.QueryPlan {
	return models.QueryPlan{
		SQL:   fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(table), rows),
		Table: table,
		Limit: rows,
	}
}
