package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleAfter = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles expensive endpoints per client IP.
type RateLimiter struct {
	perMinute int
	burst     int

	mu       sync.Mutex
	visitors map[string]*visitor
	swept    time.Time
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per IP, bursting up to the same
// amount. perMinute <= 0 disables the limit.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		burst:     perMinute,
		visitors:  map[string]*visitor{},
		now:       time.Now,
	}
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if ts.Sub(l.swept) > limiterIdleAfter {
		for k, v := range l.visitors {
			if ts.Sub(v.lastSeen) > limiterIdleAfter {
				delete(l.visitors, k)
			}
		}
		l.swept = ts
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = ts
	return v.limiter
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.perMinute <= 0 {
			c.Next()
			return
		}
		if !l.limiter(c.ClientIP()).AllowN(l.now(), 1) {
			c.Header("Retry-After", strconv.Itoa(int((time.Minute/time.Duration(l.perMinute)).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"code":       "rate_limited",
				"message":    "too many requests, slow down",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
