package generatesql

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nlq-workers/internal/common/errors"
	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/common/metrics"
	"nlq-workers/internal/common/validation"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq"
)

const TaskType = "generate-sql-llm"

var inputValidator = validation.MustCompile(TaskType, inputSchema)

// Handler asks the language model for a query when the rule-based path is not enough.
// The completion is treated as untrusted and must pass the guard against the
// introspected columns before it is handed back.
type Handler struct {
	config     *Config
	translator *nlq.Translator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(cfg *Config, translator *nlq.Translator, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if translator == nil {
		return nil, fmt.Errorf("%s: translator is required", TaskType)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		translator: translator,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.handle(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) handle(ctx context.Context, job entities.Job) (*Output, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidTranslationInputError(err.Error())
	}
	if result := inputValidator.Validate(variables); !result.Valid {
		return nil, errors.NewInvalidTranslationInputError(fmt.Sprintf("%v", result.GetErrorMessages()))
	}
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidTranslationInputError(err.Error())
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	table, err := h.translator.ResolveTable(nlq.Request{Text: input.Text, Table: input.Table})
	switch {
	case stderrors.Is(err, nlq.ErrNoTableSelected):
		return nil, errors.NewNoTableSelectedError(input.Text)
	case err != nil:
		return nil, errors.NewInvalidTranslationInputError(err.Error())
	}

	schema := h.translator.Introspect(ctx, table)
	if schema.Status != models.SchemaAvailable {
		h.logger.Warn("generating without a column list", map[string]interface{}{
			"table":        table,
			"schemaStatus": string(schema.Status),
			"reason":       schema.Reason,
		})
	}
	columns := schema.Columns()

	q := h.translator.Fallback(ctx, input.Text, table, columns)
	if q.SQL == "" {
		if ctx.Err() != nil {
			return nil, errors.NewLLMTimeoutError(ctx.Err())
		}
		return nil, errors.NewLLMGenerationEmptyError(table).
			WithMetadata("cause", nlq.ErrEmptyCompletion.Error())
	}

	if err := h.translator.Check(q, columns); err != nil {
		return nil, errors.NewQueryRejectedError(err).WithMetadata("table", table)
	}

	h.logger.Info("generated query", map[string]interface{}{
		"table":   table,
		"columns": len(columns),
	})
	return &Output{
		SQL:          q.SQL,
		Table:        table,
		QuerySource:  string(q.Source),
		Columns:      columns,
		SchemaStatus: string(schema.Status),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
