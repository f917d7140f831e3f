package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/erp/kanban/internal/infrastructure/telemetry"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
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

func TestStartServiceSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "kanban", "generate",
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, 3),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	telemetry.SetAttributes(span, telemetry.SpanAttrPageCount, 2, telemetry.SpanAttrRunID, "run-1")
	telemetry.AddEvent(span, "item_skipped", telemetry.SpanAttrItemCode, "ABC-1")
	telemetry.SetOK(span)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "kanban.generate", got.Name())
	assert.Equal(t, trace.SpanKindServer, got.SpanKind())
	assert.Equal(t, codes.Ok, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.Int(telemetry.SpanAttrItemCount, 3))
	assert.Contains(t, got.Attributes(), attribute.Int(telemetry.SpanAttrPageCount, 2))
	assert.Contains(t, got.Attributes(), attribute.String(telemetry.SpanAttrRunID, "run-1"))
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "item_skipped", got.Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "kanban.lookup")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(span, errors.New("lookup failed"))
	span.End()

	got := recorder.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "lookup failed", got.Status().Description)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}
