package wallet

import (
	"net/http"

	"wallet-gateway/internal/middleware"
	"wallet-gateway/internal/models"
	"wallet-gateway/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Outcome labels returned to clients next to the raw result status.
const (
	statusSuccess = "SUCCESS"
	statusPending = "PENDING"
	statusFailed  = "FAILED"
	statusUnknown = "UNKNOWN"
)

func resultFields(result models.GatewayResult) gin.H {
	return gin.H{
		"resultStatus":  result.ResultStatus,
		"resultCode":    result.ResultCode,
		"resultMessage": result.ResultMessage,
	}
}

// writeResult answers 200 with a body built from a gateway result and tags
// the request with that result status for metrics.
func writeResult(c *gin.Context, out gin.H) {
	if status, ok := out["resultStatus"].(models.ResultStatus); ok {
		markResult(c, status)
	}
	c.JSON(http.StatusOK, out)
}

func markResult(c *gin.Context, status models.ResultStatus) {
	middleware.SetResultStatus(c, string(status))
}

// respondBusinessFailure answers a gateway reply that is not a success where
// the caller cannot continue, such as a rejected auth code.
func respondBusinessFailure(c *gin.Context, result models.GatewayResult) {
	body := resultFields(result)
	body["success"] = false
	markResult(c, result.ResultStatus)
	c.JSON(http.StatusBadRequest, body)
}

// respondError maps err to its HTTP status. Only validation details are
// echoed; other kinds get their generic message.
func respondError(c *gin.Context, logger *zap.Logger, operation string, err error) {
	status := errors.GetHTTPStatus(err)

	message := "internal error"
	if domainErr, ok := errors.AsDomainError(err); ok {
		message = domainErr.Message
		if domainErr.Kind == errors.KindValidation && domainErr.Details != "" {
			message = domainErr.Details
		}
	}

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("correlation_id", middleware.GetCorrelationID(c)),
		zap.Int("status_code", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.NewValidationError("request body must be valid JSON")
	}
	return nil
}

func sessionFrom(c *gin.Context) (string, string, bool) {
	session, ok := middleware.GetSessionFromContext(c)
	if !ok {
		return "", "", false
	}
	return session.UserID, session.AccessToken, true
}
