package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/infrastructure/cache"
	"github.com/partsdesk/backend/internal/interfaces/http/dto"
)

// RateLimiter counts requests per client in a shared store, so the limit
// holds across instances when the store is Redis.
type RateLimiter struct {
	store  cache.Store
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// NewRateLimiter creates a rate limiter over the given store
func NewRateLimiter(store cache.Store, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		logger: log,
	}
}

// Allow reports whether a request for the key fits in the current window
// and how many requests remain. A store failure allows the request: rate
// limiting degrades rather than taking the API down with it.
func (rl *RateLimiter) Allow(c *gin.Context, key string) (bool, int64) {
	count, err := rl.store.Incr(c.Request.Context(), "ratelimit:"+key, rl.window)
	if err != nil {
		rl.logger.Warn("Rate limit store unavailable", zap.Error(err))
		return true, rl.limit
	}
	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.limit, remaining
}

// RateLimit returns a middleware limiting requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey returns a rate limiting middleware with a custom key
// extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := limiter.Allow(c, keyFunc(c))

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limiter.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRateLimited,
					"Too many requests. Please try again later.", GetRequestID(c)))
			return
		}

		c.Next()
	}
}
