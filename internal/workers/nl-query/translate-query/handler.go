package translatequery

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
	"nlq-workers/internal/nlq"
)

const TaskType = "translate-nl-query"

var inputValidator = validation.MustCompile(TaskType, inputSchema)

// Journal records finished translations.
type Journal interface {
	Record(ctx context.Context, entry database.JournalEntry) error
}

type Handler struct {
	config     *Config
	translator *nlq.Translator
	journal    Journal
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

type HandlerOptions struct {
	Config     *Config
	Translator *nlq.Translator
	Journal    Journal
	Logger     logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Translator == nil {
		return nil, fmt.Errorf("%s: translator is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	journal := opts.Journal
	if !cfg.JournalEnabled {
		journal = nil
	}

	return &Handler{
		config:     cfg,
		translator: opts.Translator,
		journal:    journal,
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

	input, err := parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			return
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
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

	tr, err := h.translator.Translate(ctx, nlq.Request{Text: input.Text, Table: input.Table})
	switch {
	case stderrors.Is(err, nlq.ErrNoTableSelected):
		return nil, errors.NewNoTableSelectedError(input.Text)
	case err != nil:
		return nil, errors.NewInvalidTranslationInputError(err.Error())
	}

	output := &Output{
		TranslationID:  tr.ID,
		Table:          tr.Table,
		Tokens:         tr.Tokens,
		Intent:         tr.Intent.String(),
		Entities:       tr.Entities.Map(),
		Range:          tr.Range,
		SQL:            tr.Query.SQL,
		QuerySource:    string(tr.Query.Source),
		QueryAccepted:  true,
		PatternVersion: tr.Version,
	}
	if err := h.translator.Check(tr.Query, nil); err != nil {
		output.QueryAccepted = false
		output.RejectionReason = err.Error()
	}

	if input.Plan {
		schema := h.translator.Introspect(ctx, tr.Table)
		output.SchemaStatus = string(schema.Status)
		plan, err := h.translator.Plan(tr, schema)
		if err != nil {
			return nil, errors.NewQueryRejectedError(err)
		}
		output.Plan = &plan
	}

	h.record(ctx, tr, output)

	h.logger.Info("translated request", map[string]interface{}{
		"translationId": tr.ID,
		"table":         tr.Table,
		"intent":        output.Intent,
		"accepted":      output.QueryAccepted,
	})
	return output, nil
}

// record writes the journal entry. Journal failures never fail the job.
func (h *Handler) record(ctx context.Context, tr *nlq.Translation, output *Output) {
	if h.journal == nil {
		return
	}
	entry := database.JournalEntry{
		ID:             tr.ID,
		Text:           tr.Text,
		Table:          tr.Table,
		Intent:         output.Intent,
		SQL:            output.SQL,
		Source:         output.QuerySource,
		Entities:       output.Entities,
		PatternVersion: tr.Version,
		Rejected:       output.RejectionReason,
		CreatedAt:      tr.CreatedAt,
	}
	if !tr.Range.IsZero() {
		entry.Range = map[string]interface{}{
			"startDate": tr.Range.StartDate,
			"endDate":   tr.Range.EndDate,
			"startTime": tr.Range.StartTime,
			"endTime":   tr.Range.EndTime,
		}
	}
	if err := h.journal.Record(ctx, entry); err != nil {
		stdErr := errors.NewJournalWriteFailedError(err)
		h.logger.Warn("journal write failed", map[string]interface{}{
			"translationId": tr.ID,
			"errorCode":     string(stdErr.Code),
			"error":         err.Error(),
		})
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

// Execute runs the translation without a job, for the CLI and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
