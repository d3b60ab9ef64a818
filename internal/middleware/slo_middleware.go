package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LatencyObjectives interface {
	CheckLatencySLO(endpoint string, latency time.Duration) (pass bool, reason string)
}

type SLOBreachRecorder interface {
	RecordSLOBreach(endpoint string)
}

// SLOMiddleware flags requests slower than their route's latency objective.
func SLOMiddleware(objectives LatencyObjectives, recorder SLOBreachRecorder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			return
		}
		latency := time.Since(start)
		if pass, reason := objectives.CheckLatencySLO(endpoint, latency); !pass {
			recorder.RecordSLOBreach(endpoint)
			logger.Warn("latency objective missed",
				zap.String("endpoint", endpoint),
				zap.String("correlation_id", GetCorrelationID(c)),
				zap.Duration("latency", latency),
				zap.String("reason", reason),
			)
		}
	}
}
