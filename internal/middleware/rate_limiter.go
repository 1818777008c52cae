package middleware

import (
	"net/http"
	"sync"
	"time"

	"stockroom/internal/apierror"

	"github.com/gin-gonic/gin"
)

// limiter is a sliding-window counter keyed by client IP. Each middleware
// instance owns its map and its purge loop, so the login limiter and the
// global API limiter never contend on shared state.
type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*windowCount
}

type windowCount struct {
	count   int
	expires time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	l := &limiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*windowCount),
	}
	go l.purge()
	return l
}

// allow counts one request for ip and reports whether it is within the limit.
func (l *limiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	wc, ok := l.clients[ip]
	if !ok || now.After(wc.expires) {
		wc = &windowCount{expires: now.Add(l.window)}
		l.clients[ip] = wc
	}
	wc.count++
	return wc.count <= l.limit, wc.expires
}

// purge drops expired windows so IPs that never return do not accumulate.
func (l *limiter) purge() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for ip, wc := range l.clients {
			if now.After(wc.expires) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimiter limits each client IP to limit requests per window.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newLimiter(limit, window)
	return func(c *gin.Context) {
		ok, expires := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", expires.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, retry shortly"))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter throttles credential guessing: 20 attempts per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	l := newLimiter(20, time.Minute)
	return func(c *gin.Context) {
		ok, _ := l.allow(c.ClientIP())
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many login attempts, retry in 1 minute"))
			return
		}
		c.Next()
	}
}
