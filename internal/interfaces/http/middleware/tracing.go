// Package middleware provides HTTP middleware for the kanban server.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erp/kanban/internal/infrastructure/telemetry"
)

// TraceIDHeader carries the trace ID of the request back to the client
const TraceIDHeader = "X-Trace-ID"

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns the tracing middleware chain: otelgin span creation, the
// request ID attribute and error status marking. Spans are named
// "HTTP METHOD route".
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}
	return []gin.HandlerFunc{
		otelgin.Middleware(cfg.ServiceName),
		SpanAttributes(),
		SpanErrorMarker(),
	}
}

// SpanAttributes adds the request ID to the current span and echoes the trace
// ID in the response headers.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := telemetry.GetTraceID(ctx); traceID != "" {
			c.Header(TraceIDHeader, traceID)
		}
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			if requestID := GetRequestID(c); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks spans with error status for 4xx/5xx responses.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		message := "Client Error"
		switch {
		case statusCode >= http.StatusInternalServerError:
			message = "Internal Server Error"
		case statusCode == http.StatusNotFound:
			message = "Not Found"
		case statusCode == http.StatusRequestEntityTooLarge:
			message = "Request Too Large"
		}
		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}
