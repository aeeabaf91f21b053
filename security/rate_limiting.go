package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRateLimiter allows limit requests per client within window.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:events",
		now:    time.Now,
	}
}

// Rate limiting middleware for event creation
func (r *RateLimiter) CreateRateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Unable to identify client",
				"code":  "rate_limit_identifier",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "rate_limited",
			})
		},
	})
}

// Allow counts the request in the current fixed window. Redis failures let
// the request through.
func (r *RateLimiter) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := r.key(identifier, r.now())
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("Rate limit counter unavailable", "identifier", identifier, "error", err)
		return true, nil
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			slog.Warn("Failed to set rate limit expiry", "key", key, "error", err)
		}
	}
	return count <= r.limit, nil
}

func (r *RateLimiter) key(identifier string, now time.Time) string {
	window := now.UnixNano() / int64(r.window)
	return fmt.Sprintf("%s:%s:%d", r.prefix, identifier, window)
}
