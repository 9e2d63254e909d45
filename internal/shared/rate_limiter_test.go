package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timely/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newLimitedRouter(t *testing.T, requests int, window time.Duration) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(NewMemoryStore(), zap.NewNop(), nil)
	limiter.SetConfig("/ping", config.RateLimitConfig{Requests: requests, Window: window})

	router := gin.New()
	router.Use(limiter.RateLimitMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	router.GET("/open", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return router
}

func doRequest(router *gin.Engine, path string, ip string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	router.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	router := newLimitedRouter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		rr := doRequest(router, "/ping", "10.0.0.1")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	router := newLimitedRouter(t, 2, time.Minute)

	doRequest(router, "/ping", "10.0.0.1")
	doRequest(router, "/ping", "10.0.0.1")

	rr := doRequest(router, "/ping", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestRateLimiterKeysByClientIP(t *testing.T) {
	router := newLimitedRouter(t, 1, time.Minute)

	rr := doRequest(router, "/ping", "10.0.0.1")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, "/ping", "10.0.0.2")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, "/ping", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimiterIgnoresUnconfiguredPaths(t *testing.T) {
	router := newLimitedRouter(t, 1, time.Minute)

	for i := 0; i < 5; i++ {
		rr := doRequest(router, "/open", "10.0.0.1")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimiterSendsLimitHeaders(t *testing.T) {
	router := newLimitedRouter(t, 5, time.Minute)

	rr := doRequest(router, "/ping", "10.0.0.1")

	assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))
}

func TestMemoryStoreResetsAfterWindow(t *testing.T) {
	store := NewMemoryStore()

	count, _, err := store.Increment(t.Context(), "k", 10*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	count, _, err = store.Increment(t.Context(), "k", 10*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	time.Sleep(15 * time.Millisecond)

	count, _, err = store.Increment(t.Context(), "k", 10*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
