package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/flightscrape/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"alpha", "beta"}))

	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, map[string]string{"X-API-Key": "gamma"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "alpha"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"Authorization": "Bearer beta"}).Code)

	w := get(r, nil)
	assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth([]string{""}))
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}

func TestRateLimit(t *testing.T) {
	r := newEngine(Auth([]string{"k1", "k2"}), RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	k1 := map[string]string{"X-API-Key": "k1"}
	assert.Equal(t, http.StatusOK, get(r, k1).Code)
	assert.Equal(t, http.StatusOK, get(r, k1).Code)

	w := get(r, k1)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"RATE_LIMITED"`)

	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "k2"}).Code, "limits are per key")
}

func TestCallerLimits_TakeAndRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newCallerLimits(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	l.now = func() time.Time { return now }

	ok, _ := l.take("k1")
	assert.True(t, ok)
	ok, _ = l.take("k1")
	assert.True(t, ok)

	ok, wait := l.take("k1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	// A rejected request does not consume a token.
	now = now.Add(time.Second)
	ok, _ = l.take("k1")
	assert.True(t, ok)
	ok, _ = l.take("k1")
	assert.False(t, ok)
}

func TestCallerLimits_Sweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newCallerLimits(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	l.now = func() time.Time { return now }

	l.take("old")
	now = now.Add(2 * time.Hour)
	l.take("fresh")

	assert.Equal(t, 1, l.sweep(time.Hour))
	assert.Equal(t, 1, l.len())
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "3", retryAfterSeconds(2100*time.Millisecond))
	assert.Equal(t, "86400", retryAfterSeconds(1000*time.Hour))
}
