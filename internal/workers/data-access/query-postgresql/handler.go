// internal/workers/data-access/query-postgresql/handler.go
package querypostgresql

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nlq-workers/internal/common/database"
	"nlq-workers/internal/common/errors"
	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/common/metrics"
	"nlq-workers/internal/common/validation"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq"
)

const (
	TaskType = "query-postgresql"
)

var inputValidator = validation.MustCompile(TaskType, inputSchema)

// Querier runs read queries with a row cap.
type Querier interface {
	Query(ctx context.Context, maxRows int, query string, args ...interface{}) (*database.ResultSet, error)
}

type Handler struct {
	config     *Config
	store      Querier
	translator *nlq.Translator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store Querier, translator *nlq.Translator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		translator: translator,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func parseInput(job entities.Job) (*Input, error) {
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
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidTranslationInputError("input cannot be nil")
	}
	if !h.translator.Library().IsTable(input.Table) {
		return nil, errors.NewInvalidTranslationInputError("unknown table: " + input.Table)
	}

	query := input.SQL
	if query == "" {
		query = nlq.PreviewPlan(input.Table, h.config.PreviewRows).SQL
	} else {
		// every caller-supplied query is untrusted until the guard passes it
		schema := h.translator.Introspect(ctx, input.Table)
		candidate := models.SynthesizedQuery{
			SQL:    query,
			Table:  input.Table,
			Source: models.QuerySource(input.QuerySource),
		}
		if candidate.Source == "" {
			candidate.Source = models.QuerySourceLLM
		}
		if err := h.translator.Check(candidate, schema.Columns()); err != nil {
			return nil, errors.NewQueryRejectedError(err).WithMetadata("table", input.Table)
		}
	}

	maxRows := h.config.MaxRows
	if input.MaxRows > 0 && input.MaxRows < maxRows {
		maxRows = input.MaxRows
	}

	start := time.Now()
	rs, err := h.store.Query(ctx, maxRows, query, input.Args...)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError(input.Table)
		}
		return nil, errors.NewQueryExecutionFailedError(input.Table, err)
	}
	metrics.QueryRows.WithLabelValues(input.Table).Observe(float64(len(rs.Rows)))

	if rs.Truncated {
		h.logger.Warn("result truncated at safety limit", map[string]interface{}{
			"table":   input.Table,
			"maxRows": maxRows,
		})
	}

	return &Output{
		Columns:            rs.Columns,
		Data:               rs.Rows,
		RowCount:           len(rs.Rows),
		Truncated:          rs.Truncated,
		QueryExecutionTime: time.Since(start).Milliseconds(),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
