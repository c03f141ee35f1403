package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-table/pkg/logger"
)

// RateLimiterConfig holds configuration for the token bucket limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

// tokenBucket refills at ARGV[1] tokens per second up to ARGV[2] and takes ARGV[4]
// tokens at time ARGV[3]. Returns 1 when the request is allowed.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= requested then
	tokens = tokens - requested
	allowed = 1
end

redis.call('HSET', key, 'last_refill', now, 'tokens', tokens)
redis.call('EXPIRE', key, 60)
return allowed
`)

// RateLimiter limits requests per client IP and route with a Redis token bucket.
// Redis failures let the request through.
func RateLimiter(client *redis.Client, cfg RateLimiterConfig, log *zap.Logger) gin.HandlerFunc {
	if client == nil || !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.Named("rate_limiter")

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s", c.Request.Method, route, c.ClientIP())

		now, err := client.Time(ctx).Result()
		if err != nil {
			now = time.Now()
		}
		seconds := float64(now.UnixNano()) / float64(time.Second)

		allowed, err := tokenBucket.Run(ctx, client, []string{key},
			cfg.RequestsPerSecond, cfg.BurstCapacity, seconds, 1).Int64()
		if err != nil {
			logger.WithContext(ctx, log).Warn("rate limiter redis error, allowing request",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if allowed == 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)",
					cfg.RequestsPerSecond, cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
