package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/lankanlens/rental-marketplace/internal/config"
)

// tokenBucket keeps a fractional token count that grows continuously at
// rate tokens per millisecond up to burst, and takes one token per request.
// The state is a redis hash so every server process shares it.
var tokenBucket = redis.NewScript(`
	local now = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local rate = tonumber(ARGV[3]) / tonumber(ARGV[4])

	local level = tonumber(redis.call('HGET', KEYS[1], 'level'))
	local seen = tonumber(redis.call('HGET', KEYS[1], 'seen'))
	if level == nil or seen == nil then
		level, seen = burst, now
	end
	level = math.min(burst, level + math.max(0, now - seen) * rate)

	local ok, wait = 0, 0
	if level >= 1 then
		ok, level = 1, level - 1
	else
		wait = math.ceil((1 - level) / rate)
	end
	redis.call('HSET', KEYS[1], 'level', tostring(level), 'seen', now)
	redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
	return { ok, math.floor(level), wait }
`)

// NewTokenBucket limits requests per key with a redis-backed token bucket.
// Without redis, or when disabled, it passes every request through; a
// redis failure at request time also fails open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			args := []any{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}
			vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Slice()
			if err != nil || len(vals) != 3 {
				zap.L().Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			allowed := cast.ToInt64(vals[0]) == 1
			remaining := cast.ToInt64(vals[1])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(cast.ToInt64(vals[2])) / 1000.0))
			h.Set("Retry-After", strconv.Itoa(secs))
			msg := fmt.Sprintf("Too many requests. Please try again in %d second(s).", secs)
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"success": false, "message": msg, "retry_after": secs})
			}
			return echo.NewHTTPError(http.StatusTooManyRequests, msg)
		}
	}
}

// rateKey builds the bucket key for the configured strategy.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := "anon"
	if id := CurrentIdentity(c); id.Authenticated() {
		uid = strconv.FormatUint(id.UserID, 10)
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
