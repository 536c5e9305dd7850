package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/v1/battery", ok)
	r.GET("/api/v1/health", ok)
	return r
}

func get(r http.Handler, path, ip string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newTestRouter(RateLimitMiddleware(rate.NewLimiter(rate.Every(time.Hour), 2)))

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/battery", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/battery", "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/v1/battery", "10.0.0.3"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/health", "10.0.0.3"))
}

func TestIPRateLimitMiddlewareIsPerClient(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 1)
	r := newTestRouter(IPRateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/battery", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/v1/battery", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/battery", "10.0.0.2"))
	assert.Equal(t, 2, limiter.Len())
}

func TestIPRateLimiterCleanup(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Second), 1)
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("10.0.0.1")
	now = now.Add(5 * time.Minute)
	limiter.GetLimiter("10.0.0.2")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, limiter.Cleanup())
	assert.Equal(t, 1, limiter.Len())
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	r := newTestRouter(RequestLogger())
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/battery?x=1", "10.0.0.1"))
}
