package introspectschema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nlq-workers/internal/common/errors"
	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/common/metrics"
	"nlq-workers/internal/common/validation"
	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq"
	"nlq-workers/internal/nlq/patterns"
)

const TaskType = "introspect-table-schema"

var inputValidator = validation.MustCompile(TaskType, inputSchema)

type Handler struct {
	config       *Config
	introspector *nlq.Introspector
	lib          *patterns.Library
	errHandler   *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, introspector *nlq.Introspector, lib *patterns.Library, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		introspector: introspector,
		lib:          lib,
		errHandler:   errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	variables, err := job.GetVariablesAsMap()
	if err == nil {
		if result := inputValidator.Validate(variables); !result.Valid {
			err = errors.NewInvalidTranslationInputError(fmt.Sprintf("%v", result.GetErrorMessages()))
		} else {
			err = json.Unmarshal([]byte(job.GetVariables()), &input)
		}
	}

	var output *Output
	if err == nil {
		output, err = h.execute(ctx, &input)
	}
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	tables := input.Tables
	if len(tables) == 0 {
		tables = h.lib.Tables()
	}
	var unknown []string
	for _, t := range tables {
		if !h.lib.IsTable(t) {
			unknown = append(unknown, t)
		}
	}
	if len(unknown) > 0 {
		return nil, errors.NewInvalidTranslationInputError("unknown tables: " + strings.Join(unknown, ", "))
	}

	out := &Output{Schemas: h.introspector.IntrospectAll(ctx, tables)}
	var reasons []string
	for _, s := range out.Schemas {
		metrics.Introspections.WithLabelValues(string(s.Status)).Inc()
		switch s.Status {
		case models.SchemaAvailable:
			out.Available++
		case models.SchemaEmpty:
			out.Empty++
		default:
			out.Unavailable++
			reasons = append(reasons, s.Table+": "+s.Reason)
		}
	}

	// nothing could be read at all: let the engine retry
	if out.Unavailable == len(out.Schemas) {
		return nil, errors.NewSchemaUnavailableError(strings.Join(tables, ","), strings.Join(reasons, "; "))
	}

	h.logger.Info("introspected tables", map[string]interface{}{
		"available":   out.Available,
		"empty":       out.Empty,
		"unavailable": out.Unavailable,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
