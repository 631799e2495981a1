package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/models"
	"golang.org/x/time/rate"
)

// Idle callers are forgotten after callerIdleTTL; the sweep runs every
// sweepInterval.
const (
	callerIdleTTL = time.Hour
	sweepInterval = 5 * time.Minute
)

type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// callerLimits holds one token bucket per caller. A caller is the API key
// set by Auth, or the client IP when auth is off.
type callerLimits struct {
	mu      sync.Mutex
	buckets map[string]*callerBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newCallerLimits(cfg config.RateLimitConfig) *callerLimits {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &callerLimits{
		buckets: make(map[string]*callerBucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// take spends one token for caller. When the bucket is empty it returns
// false and how long until the next token.
func (l *callerLimits) take(caller string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[caller]
	if !ok {
		b = &callerBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[caller] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Duration(math.MaxInt64)
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// sweep drops callers not seen for longer than idle.
func (l *callerLimits) sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	dropped := 0
	for caller, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, caller)
			dropped++
		}
	}
	return dropped
}

func (l *callerLimits) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// retryAfterSeconds renders wait for the Retry-After header, rounded up.
func retryAfterSeconds(wait time.Duration) string {
	if wait > 24*time.Hour {
		wait = 24 * time.Hour
	}
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// RateLimit returns per-caller token-bucket middleware. It bounds how fast
// one caller can queue searches; concurrency is capped separately by the
// search slots.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limits := newCallerLimits(cfg)

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			limits.sweep(callerIdleTTL)
		}
	}()

	return func(c *gin.Context) {
		caller := c.GetString(ContextKeyAPIKey)
		if caller == "" {
			caller = c.ClientIP()
		}

		if ok, wait := limits.take(caller); !ok {
			c.Header("Retry-After", retryAfterSeconds(wait))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
