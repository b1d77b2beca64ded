package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/config"
)

// Bucket takes one token from the bucket stored under key.
type Bucket interface {
    Take(ctx context.Context, key string, now time.Time) (BucketResult, error)
}

// BucketResult is the outcome of one Take.
type BucketResult struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// RedisBucket evaluates the token bucket atomically in Redis.
type RedisBucket struct {
    rdb *redis.Client
    cfg config.RateLimitConfig
}

func NewRedisBucket(rdb *redis.Client, cfg config.RateLimitConfig) *RedisBucket {
    return &RedisBucket{rdb: rdb, cfg: cfg}
}

func (b *RedisBucket) Take(ctx context.Context, key string, now time.Time) (BucketResult, error) {
    vals, err := limiterScript.Run(ctx, b.rdb, []string{key},
        now.UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL/time.Second),
    ).Result()
    if err != nil {
        return BucketResult{}, err
    }
    return parseBucket(vals)
}

func parseBucket(vals any) (BucketResult, error) {
    arr, ok := vals.([]any)
    if !ok || len(arr) != 3 {
        return BucketResult{}, fmt.Errorf("ratelimit: unexpected script result %#v", vals)
    }
    return BucketResult{
        Allowed:    asInt64(arr[0]) == 1,
        Remaining:  asInt64(arr[1]),
        RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits requests per key.  A nil bucket or a disabled
// config yields a pass-through; bucket errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, bucket Bucket, clk clock.Clock) echo.MiddlewareFunc {
    if !cfg.Enabled || bucket == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := bucket.Take(c.Request().Context(), key, clk.Now())
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

            if !res.Allowed {
                secs := int(math.Ceil(res.RetryAfter.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, res.RetryAfter)
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func asInt64(v any) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userID(c)
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
