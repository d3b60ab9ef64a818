package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-gateway/internal/services/slo"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockSLORecorder struct {
	mock.Mock
}

func (m *MockSLORecorder) RecordSLOBreach(endpoint string) {
	m.Called(endpoint)
}

func TestSLOMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	objectives := slo.NewServiceWith(map[string]time.Duration{
		"/slow": time.Millisecond,
		"/fast": time.Minute,
	})
	recorder := new(MockSLORecorder)
	recorder.On("RecordSLOBreach", "/slow").Once()

	router := gin.New()
	router.Use(SLOMiddleware(objectives, recorder, zap.NewNop()))
	router.GET("/slow", func(c *gin.Context) {
		time.Sleep(5 * time.Millisecond)
		c.Status(http.StatusOK)
	})
	router.GET("/fast", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/slow", "/fast", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	recorder.AssertExpectations(t)
	recorder.AssertNumberOfCalls(t, "RecordSLOBreach", 1)
}
