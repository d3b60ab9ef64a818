package middleware

import (
	"context"
	"net/http"

	"wallet-gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	CorrelationIDContextKey = "correlation_id"
	RequestIDHeader         = "X-Request-ID"
)

type SpanStarter interface {
	StartServerSpan(ctx context.Context, method, route string) (context.Context, trace.Span)
}

// CorrelationMiddleware tags each request with a correlation id taken from
// the traceparent header when valid, echoes it in X-Request-ID and wraps the
// request in a server span.
func CorrelationMiddleware(tracer SpanStarter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := utils.CorrelationID(c.GetHeader("traceparent"))
		c.Set(CorrelationIDContextKey, correlationID)
		c.Header(RequestIDHeader, correlationID)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.StartServerSpan(c.Request.Context(), c.Request.Method, route)
		defer span.End()
		span.SetAttributes(attribute.String("correlation_id", correlationID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("correlation_id", correlationID),
				zap.String("route", route),
				zap.Int("status_code", status),
			)
		}
	}
}

// GetCorrelationID returns the id set by CorrelationMiddleware, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDContextKey)
}
