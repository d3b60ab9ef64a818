package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ResultStatusContextKey holds the wallet result status a handler answered
// with. Requests that never reached the gateway leave it unset.
const ResultStatusContextKey = "wallet_result_status"

type MetricsRecorder interface {
	RecordRequest(endpoint, method, status string)
	RecordRequestDuration(endpoint, status string, duration time.Duration)
	RecordRequestResult(endpoint, resultStatus string)
}

// MetricsMiddleware records every request by route template and HTTP status
// class. Requests answered from a gateway result are also counted by that
// result status, since a 200 can carry a pending or failed business outcome.
func MetricsMiddleware(metrics MetricsRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		c.Next()

		duration := time.Since(start)
		status := getStatusLabel(c.Writer.Status())

		metrics.RecordRequest(endpoint, c.Request.Method, status)
		metrics.RecordRequestDuration(endpoint, status, duration)
		if resultStatus := GetResultStatus(c); resultStatus != "" {
			metrics.RecordRequestResult(endpoint, resultStatus)
		}
	}
}

func SetResultStatus(c *gin.Context, resultStatus string) {
	c.Set(ResultStatusContextKey, resultStatus)
}

func GetResultStatus(c *gin.Context) string {
	return c.GetString(ResultStatusContextKey)
}

func getStatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "unknown"
	}
}
