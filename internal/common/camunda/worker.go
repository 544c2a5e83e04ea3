// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nlq-workers/internal/common/config"
	"nlq-workers/internal/common/logger"
)

// JobHandler is implemented by every worker package's Handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives per-job telemetry.
type JobRecorder interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// WorkerSet owns the job workers opened by the worker manager.
type WorkerSet struct {
	client   zbc.Client
	log      logger.Logger
	recorder JobRecorder

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerSet(client zbc.Client, log logger.Logger) *WorkerSet {
	return &WorkerSet{client: client, log: log, workers: make(map[string]worker.JobWorker)}
}

// SetRecorder makes every worker started afterwards report to r.
func (s *WorkerSet) SetRecorder(r JobRecorder) { s.recorder = r }

// Start opens a job worker for taskType unless the worker is disabled. It reports
// whether a worker was opened.
func (s *WorkerSet) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		s.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := s.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, s.recorder)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Name(taskType + "-worker").
		Open()

	s.mu.Lock()
	s.workers[taskType] = jw
	s.mu.Unlock()

	s.log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the running workers.
func (s *WorkerSet) TaskTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.workers))
	for t := range s.workers {
		out = append(out, t)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (s *WorkerSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for taskType, jw := range s.workers {
		s.log.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		jw.Close()
		jw.AwaitClose()
		delete(s.workers, taskType)
	}
}

// statusClient notes which terminal command a handler issued.
type statusClient struct {
	worker.JobClient
	status string
}

func (c *statusClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = "failed"
	return c.JobClient.NewFailJobCommand()
}

func (c *statusClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = "bpmn_error"
	return c.JobClient.NewThrowErrorCommand()
}

// Instrument wraps handler so each job runs inside a span and its outcome and duration
// reach r. A nil r returns the handler unchanged.
func Instrument(taskType string, handler JobHandler, r JobRecorder) worker.JobHandler {
	if r == nil {
		return handler.Handle
	}
	return func(client worker.JobClient, job entities.Job) {
		ctx, span := r.StartSpan(context.Background(), taskType,
			attribute.Int64("job.key", job.GetKey()),
			attribute.Int64("job.process_instance_key", job.GetProcessInstanceKey()),
		)
		defer span.End()

		start := time.Now()
		sc := &statusClient{JobClient: client, status: "completed"}
		handler.Handle(sc, job)

		span.SetAttributes(attribute.String("job.status", sc.status))
		if sc.status != "completed" {
			span.SetStatus(codes.Error, sc.status)
		}
		r.RecordJobProcessed(ctx, taskType, sc.status)
		r.RecordJobDuration(ctx, taskType, time.Since(start), sc.status)
	}
}
