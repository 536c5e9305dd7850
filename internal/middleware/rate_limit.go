package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// skipRateLimit lists paths monitoring hits that must never be throttled.
func skipRateLimit(path string) bool {
	return path == "/health" || strings.HasSuffix(path, "/api/v1/health")
}

// RateLimitMiddleware applies one limiter to every client.
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !limiter.Allow() {
			logger.Warn().
				Str("ip", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit blocked request")
			tooManyRequests(c, "please try again later")
			return
		}

		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than idleTTL are swept at most once per idleTTL.
type IPRateLimiter struct {
	ips       map[string]*visitor
	mu        sync.Mutex
	r         rate.Limit
	b         int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:     make(map[string]*visitor),
		r:       r,
		b:       b,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) > i.idleTTL {
		i.sweep(now)
	}

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup forgets idle clients and returns how many were removed.
func (i *IPRateLimiter) Cleanup() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sweep(i.now())
}

func (i *IPRateLimiter) sweep(now time.Time) int {
	i.lastSweep = now
	cutoff := now.Add(-i.idleTTL)
	removed := 0
	for ip, v := range i.ips {
		if v.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			removed++
		}
	}
	return removed
}

func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

func IPRateLimitMiddleware(ipLimiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !ipLimiter.GetLimiter(c.ClientIP()).Allow() {
			tooManyRequests(c, "please try again in a few seconds")
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":   "rate limit exceeded",
		"message": message,
		"code":    string(errors.ErrUnavailable),
	})
}
