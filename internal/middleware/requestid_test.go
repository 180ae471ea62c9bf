package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestIDEngine(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		*captured = RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})
	return engine
}

func TestRequestID_MintsWhenMissing(t *testing.T) {
	var seen string
	engine := requestIDEngine(&seen)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	echoed := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, echoed)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
	assert.Equal(t, echoed, seen)
}

func TestRequestID_KeepsGatewaySuppliedID(t *testing.T) {
	var seen string
	engine := requestIDEngine(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "gw-12345")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "gw-12345", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "gw-12345", seen)
}

func TestRequestIDFromContext_EmptyWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, RequestIDFromContext(c))
}
