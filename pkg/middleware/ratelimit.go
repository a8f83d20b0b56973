package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"hostel-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimit caps requests per caller in fixed windows counted in Redis. The
// caller is the authenticated user when there is one, else the client IP.
// With a nil client, or when Redis errors, requests pass through.
func RateLimit(rdb *redis.Client, config utils.RateLimitConfig, prefix string, logger *zap.Logger) func(http.Handler) http.Handler {
	if rdb == nil || config.Requests <= 0 || config.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			window := now.UnixNano() / int64(config.Window)
			key := fmt.Sprintf("ratelimit:%s:%s:%d", prefix, callerKey(r), window)

			var incr *redis.IntCmd
			_, err := rdb.TxPipelined(r.Context(), func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(r.Context(), key)
				pipe.Expire(r.Context(), key, config.Window)
				return nil
			})
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request",
					zap.Error(err), zap.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			count := incr.Val()
			remaining := max(0, int64(config.Requests)-count)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(config.Requests) {
				windowEnd := time.Unix(0, (window+1)*int64(config.Window))
				retry := int(windowEnd.Sub(now).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Warn("Rate limit exceeded",
					zap.String("key", key), zap.Int64("count", count))
				utils.ResponseTooManyRequests(w, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
