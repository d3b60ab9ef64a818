package middleware

import (
	"net/http"
	"strings"

	"wallet-gateway/internal/services/claims"
	"wallet-gateway/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const SessionContextKey = "session"

type SessionOpener interface {
	OpenSession(token string) (claims.Session, error)
}

// TokenFailureRecorder counts rejected tokens by sub-kind.
type TokenFailureRecorder interface {
	RecordTokenFailure(kind string)
}

// ClaimsAuthMiddleware opens the bearer claims token and stores the session
// on the gin context. Every rejection is answered with the same 401 body so
// callers cannot tell the failure kinds apart.
func ClaimsAuthMiddleware(opener SessionOpener, metrics TokenFailureRecorder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, metrics, logger, errors.NewTokenError(errors.TokenMalformed, nil))
			return
		}

		session, err := opener.OpenSession(token)
		if err != nil {
			reject(c, metrics, logger, err)
			return
		}

		c.Set(SessionContextKey, session)
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func reject(c *gin.Context, metrics TokenFailureRecorder, logger *zap.Logger, err error) {
	kind := errors.TokenKindOf(err)
	if metrics != nil {
		metrics.RecordTokenFailure(kind.String())
	}

	logger.Warn("request rejected by middleware",
		zap.Int("status_code", http.StatusUnauthorized),
		zap.String("token_failure", kind.String()),
		zap.String("correlation_id", GetCorrelationID(c)),
		zap.Error(err),
	)

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "invalid token",
	})
}

// GetSessionFromContext returns the session set by ClaimsAuthMiddleware.
func GetSessionFromContext(c *gin.Context) (claims.Session, bool) {
	v, exists := c.Get(SessionContextKey)
	if !exists {
		return claims.Session{}, false
	}
	session, ok := v.(claims.Session)
	return session, ok
}
