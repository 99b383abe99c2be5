package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/propman/backend/internal/infrastructure/config"
)

// withRecordingProvider installs an in-memory span recorder as the global
// tracer provider for the duration of the test.
func withRecordingProvider(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	return recorder
}

func TestStartServiceSpan_NamingAndAttributes(t *testing.T) {
	recorder := withRecordingProvider(t)

	ctx, span := StartServiceSpan(context.Background(), "inspection", "complete",
		WithAttribute(SpanAttrInspectionID, "abc-123"),
	)
	SetAttribute(span, SpanAttrDamageCost, 450.00)
	span.End()

	require.NotNil(t, ctx)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "inspection.complete", spans[0].Name())

	attrs := spans[0].Attributes()
	found := map[string]bool{}
	for _, attr := range attrs {
		found[string(attr.Key)] = true
	}
	assert.True(t, found[SpanAttrInspectionID])
	assert.True(t, found[SpanAttrDamageCost])
}

func TestRecordError_SetsErrorStatus(t *testing.T) {
	recorder := withRecordingProvider(t)

	_, span := StartSpan(context.Background(), "inspection.cancel")
	RecordError(span, errors.New("inspection already completed"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "inspection already completed", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestGetTraceID_RoundTrip(t *testing.T) {
	withRecordingProvider(t)

	ctx, span := StartSpan(context.Background(), "billing.preview")
	defer span.End()

	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)
	assert.NotEmpty(t, GetSpanID(ctx))

	// no span, no IDs
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestNewTracerProvider_DisabledIsNoop(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), config.TelemetryConfig{
		Enabled: false,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NotNil(t, tp.Tracer("test"))
}
