package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxHeaderAttrLength bounds header-sourced span attributes
const maxHeaderAttrLength = 128

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns OpenTelemetry tracing middleware. It wraps otelgin and
// enriches the server span with the request correlation ID and the acting
// operator so traces can be joined with logs and the audit trail.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	base := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if requestID := clampHeader(c.GetString("request_id")); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if operator := clampHeader(c.GetHeader("X-Operator-ID")); operator != "" {
			span.SetAttributes(attribute.String("operator_id", operator))
		}
	}
}

func clampHeader(v string) string {
	if len(v) > maxHeaderAttrLength {
		return v[:maxHeaderAttrLength]
	}
	return v
}
