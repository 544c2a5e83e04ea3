package camunda

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"nlq-workers/internal/common/config"
	"nlq-workers/internal/common/logger"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}

	t.Run("recovers from transient errors", func(t *testing.T) {
		calls := 0
		err := c.ExecuteWithRetry(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, "topology")
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		err := c.ExecuteWithRetry(context.Background(), func(context.Context) error {
			calls++
			return errors.New("permission denied")
		}, "topology")
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := c.ExecuteWithRetry(context.Background(), func(context.Context) error {
			calls++
			return errors.New("unavailable")
		}, "topology")
		require.Error(t, err)
		assert.Equal(t, 4, calls)
		assert.Contains(t, err.Error(), "topology")
	})
}

func TestWorkerSet_SkipsDisabledWorkers(t *testing.T) {
	set := NewWorkerSet(nil, logger.NewNoOpLogger())
	assert.False(t, set.Start("translate-nl-query", config.WorkerConfig{Enabled: false}, nil))
	assert.Empty(t, set.TaskTypes())
	set.Close()
}

// ==========================
// Test Helper Functions
// ==========================

type nopJobClient struct{}

func (nopJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 { return nil }
func (nopJobClient) NewFailJobCommand() commands.FailJobCommandStep1         { return nil }
func (nopJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1   { return nil }

type handlerFunc func(worker.JobClient, entities.Job)

func (f handlerFunc) Handle(c worker.JobClient, j entities.Job) { f(c, j) }

type recordedJob struct {
	taskType, status string
}

type fakeRecorder struct {
	mu        sync.Mutex
	processed []recordedJob
	durations int
	spans     *tracetest.SpanRecorder
	tracer    trace.Tracer
}

func newFakeRecorder() *fakeRecorder {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return &fakeRecorder{spans: sr, tracer: tp.Tracer("test")}
}

func (r *fakeRecorder) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *fakeRecorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, recordedJob{taskType, status})
}

func (r *fakeRecorder) RecordJobDuration(context.Context, string, time.Duration, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func TestInstrument(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}}

	tests := []struct {
		name       string
		handle     func(worker.JobClient)
		want       string
		wantStatus codes.Code
	}{
		{"completed", func(c worker.JobClient) { c.NewCompleteJobCommand() }, "completed", codes.Unset},
		{"failed", func(c worker.JobClient) { c.NewFailJobCommand() }, "failed", codes.Error},
		{"bpmn error", func(c worker.JobClient) { c.NewThrowErrorCommand() }, "bpmn_error", codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFakeRecorder()
			h := Instrument("translate-nl-query", handlerFunc(func(c worker.JobClient, _ entities.Job) {
				tt.handle(c)
			}), rec)
			h(nopJobClient{}, job)

			assert.Equal(t, []recordedJob{{"translate-nl-query", tt.want}}, rec.processed)
			assert.Equal(t, 1, rec.durations)

			ended := rec.spans.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, "translate-nl-query", ended[0].Name())
			assert.Equal(t, tt.wantStatus, ended[0].Status().Code)
			assert.Contains(t, ended[0].Attributes(), attribute.String("job.status", tt.want))
			assert.Contains(t, ended[0].Attributes(), attribute.Int64("job.key", 1))
		})
	}
}

func TestInstrument_NilRecorder(t *testing.T) {
	called := false
	h := Instrument("x", handlerFunc(func(worker.JobClient, entities.Job) { called = true }), nil)
	h(nopJobClient{}, entities.Job{ActivatedJob: &pb.ActivatedJob{}})
	assert.True(t, called)
}
