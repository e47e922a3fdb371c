package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aroti/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(utils.UserIDKey, uid)
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(2, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))

	// Other callers have their own bucket.
	assert.Equal(t, http.StatusOK, do("b"))
	assert.Equal(t, http.StatusOK, do(""))
}

func TestRateLimiterStoreSweepsIdleVisitors(t *testing.T) {
	now := time.Now()
	store := newRateLimiterStore(10)
	store.now = func() time.Time { return now }

	store.getLimiter("ip:1")
	store.getLimiter("ip:2")
	assert.Len(t, store.visitors, 2)

	now = now.Add(idleLimiterTTL + time.Second)
	store.getLimiter("ip:2")
	assert.Len(t, store.visitors, 1)
	assert.Contains(t, store.visitors, "ip:2")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(utils.RequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get("X-Request-ID")
	assert.Len(t, id, 8)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get("X-Request-ID"))
}
