package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"nlq-workers/internal/common/config"
	"nlq-workers/internal/common/logger"
)

func TestObservability_Lifecycle(t *testing.T) {
	o := New(config.ObservabilityConfig{
		ServiceName:    "nlq-workers-test",
		JaegerEndpoint: "http://127.0.0.1:14268/api/traces",
		SampleRatio:    0,
	}, logger.NewTestLogger(t))

	assert.NotNil(t, o.tracerProvider)

	ctx, span := o.StartSpan(context.Background(), "translate-nl-query", attribute.String("table", "AuditLog"))
	assert.NotNil(t, ctx)
	span.End()

	o.RecordJobProcessed(ctx, "translate-nl-query", "completed")
	o.RecordJobDuration(ctx, "translate-nl-query", 12*time.Millisecond, "completed")

	// the ratio-0 sampler drops everything, so shutdown has nothing to flush
	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestObservability_ZeroValue(t *testing.T) {
	var o Observability
	_, span := o.StartSpan(context.Background(), "noop")
	span.End()
	o.RecordJobProcessed(context.Background(), "x", "failed")
	assert.NoError(t, o.Shutdown(context.Background()))
}
