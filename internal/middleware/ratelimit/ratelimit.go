package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/tour_service/internal/config"
	"github.com/Skotchmaster/tour_service/internal/logging"
)

const keyPrefix = "ratelimit"

// Limiter is a fixed-window counter per client ip and route kept in redis.
type Limiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
}

func New(rdb redis.Cmdable, cfg config.RateLimit) *Limiter {
	return &Limiter{rdb: rdb, max: cfg.Max, window: cfg.Window}
}

// fixedWindow increments the counter and arms its expiry in one step. A key
// found without a TTL gets one, so a counter can never outlive its window.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// Allow counts one hit against key and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, retryAfter time.Duration, err error) {
	res, err := fixedWindow.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return true, 0, 0, err
	}
	if len(res) != 2 {
		return true, 0, 0, fmt.Errorf("ratelimit: unexpected script result %v", res)
	}
	n, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if n > int64(l.max) {
		return false, 0, ttl, nil
	}
	return true, l.max - int(n), 0, nil
}

// Middleware is a pass-through when redis is not configured. Redis errors fail open.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	if l == nil || l.rdb == nil || l.max <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := keyPrefix + ":" + c.Request().Method + ":" + c.Path() + ":" + ip

			allowed, remaining, retry, err := l.Allow(ctx, key)
			if err != nil {
				logging.FromContext(ctx).With("middleware", "ratelimit").Warn("ratelimit_unavailable", "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				secs := int((retry + time.Second - 1) / time.Second)
				h.Set("Retry-After", strconv.Itoa(secs))
				logging.FromContext(ctx).With("middleware", "ratelimit").Warn("rate_limited", "status", 429, "key", key)
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
