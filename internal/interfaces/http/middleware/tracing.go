// Package middleware provides the gin middleware of the ordering API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds caller supplied request ids
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// TracingWithConfig wraps otelgin. Spans are named "METHOD route" and, once
// the handler chain has run, carry request_id and customer_id. Responses of
// 400 and above mark the span as failed.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	base := otelgin.Middleware(cfg.ServiceName)
	return func(c *gin.Context) {
		// otelgin runs the rest of the chain
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		enrichSpanWithAttributes(c, span)
		markSpanStatus(c, span)
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if customerID := GetCustomerID(c); customerID != "" {
		span.SetAttributes(attribute.String("customer_id", customerID))
	}
}

func markSpanStatus(c *gin.Context, span trace.Span) {
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		return
	}
	span.SetStatus(codes.Error, http.StatusText(status))
	span.SetAttributes(attribute.Int("http.status_code", status))
}
