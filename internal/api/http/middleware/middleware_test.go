package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitledger/inventory-backend/internal/auth"
	authdomain "github.com/unitledger/inventory-backend/internal/auth/domain"
	"github.com/unitledger/inventory-backend/internal/logging"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())

	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = logging.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("echoes incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("generates when missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

		rid := rr.Header().Get("X-Request-Id")
		assert.Len(t, rid, 32)
		assert.Equal(t, rid, seen)
	})
}

func TestUserRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewUserRateLimiter(2)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			uid := int64(len(id))
			auth.SetPrincipal(c, auth.Principal{UserID: uid, Role: authdomain.RoleDeveloper})
		}
		c.Next()
	})
	r.POST("/upload", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("a"))
	assert.Equal(t, http.StatusOK, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusOK, call("bb"), "budgets are per user")
	assert.Equal(t, http.StatusOK, call(""))
}

func TestUserRateLimiter_Disabled(t *testing.T) {
	limiter := NewUserRateLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.limiterFor("k").Allow())
	}
}

func TestUserRateLimiter_PruneIdle(t *testing.T) {
	limiter := NewUserRateLimiter(2)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		limiter.limiterFor("ip:" + strconv.Itoa(i))
	}
	clock = clock.Add(20 * time.Minute)
	limiter.limiterFor("user:1")
	require.Equal(t, 51, limiter.Tracked())

	assert.Equal(t, 50, limiter.PruneIdle(10*time.Minute))
	assert.Equal(t, 1, limiter.Tracked(), "recently seen callers are kept")
	assert.Zero(t, limiter.PruneIdle(10*time.Minute))
}

func TestMaxBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MaxBodySize(8))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(make([]byte, 9))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	preflight := func(h gin.HandlerFunc, origin string) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(h)
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "GET")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := preflight(CORS("http://localhost:5173", false), "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = preflight(CORS("http://localhost:5173", false), "http://evil.example")
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	rr = preflight(CORS("http://localhost:5173", true), "http://anything.example")
	assert.Equal(t, "http://anything.example", rr.Header().Get("Access-Control-Allow-Origin"))
}
