package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter is a Redis-backed fixed-window rate limiter. It guards the
// auth endpoints; the entitlement engine itself re-reads database truth and
// does not rate limit.
type RateLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client redis.UniversalClient, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow reports whether the caller identified by key may proceed.
func (r *RateLimiter) Allow(c *gin.Context, key string) (bool, error) {
	ctx := c.Request.Context()
	fullKey := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, key, time.Now().Unix()/int64(r.window.Seconds()))

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		r.client.Expire(ctx, fullKey, r.window)
	}

	return count <= int64(r.limit), nil
}

// Middleware returns a Gin middleware keyed by client IP.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := r.Allow(c, c.ClientIP())
		if err != nil {
			// Redis unavailable: let the request through rather than block logins
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "too many requests, slow down",
				},
			})
			return
		}
		c.Next()
	}
}
