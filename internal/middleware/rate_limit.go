package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a sliding window counter per client IP.
type RateLimiter struct {
	tokens     map[string][]time.Time
	maxRequest int
	duration   time.Duration
	now        func() time.Time
	mu         sync.Mutex
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
		now:        time.Now,
	}
}

// must hold lock
func (rl *RateLimiter) cleanup(now time.Time) {
	for ip, tokens := range rl.tokens {
		var valid []time.Time
		for _, t := range tokens {
			if now.Sub(t) <= rl.duration {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.tokens[ip] = valid
		} else {
			delete(rl.tokens, ip)
		}
	}
}

// Take records a request from ip and returns how many remain in the
// window, or false when the limit is reached.
func (rl *RateLimiter) Take(ip string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	tokens := rl.tokens[ip]
	if len(tokens) >= rl.maxRequest {
		return 0, false
	}
	rl.tokens[ip] = append(tokens, now)
	return rl.maxRequest - len(tokens) - 1, true
}

func RateLimit(maxRequest int, duration time.Duration) gin.HandlerFunc {
	return RateLimitWith(NewRateLimiter(maxRequest, duration))
}

func RateLimitWith(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		remaining, ok := limiter.Take(ip)
		if !ok {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("user_agent", c.GetHeader("User-Agent")),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", limiter.maxRequest),
				zap.Duration("duration", limiter.duration),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(limiter.duration.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, constants.BuildErrorResponse(constants.MsgTooManyRequests, nil))
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.maxRequest))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limiter.now().Add(limiter.duration).Unix()))

		c.Next()
	}
}
