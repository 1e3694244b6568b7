package middleware

import (
	"fmt"
	"net/http"
	"time"

	"couponhub/internal/cache"
)

const (
	RateLimit       = 30              // requests per window
	RateLimitWindow = 1 * time.Minute // window duration
)

// RateLimiter throttles clients with a Redis counter per address. During a
// coupon drop most over-limit traffic is retried SoldOut polling, so the
// limit is deliberately generous.
func RateLimiter(redisClient *cache.Redis) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := r.RemoteAddr

			key := fmt.Sprintf("ratelimit:%s", clientIP)

			count, err := redisClient.Incr(key)
			if err != nil {
				// If Redis fails, allow the request
				next.ServeHTTP(w, r)
				return
			}

			// Set expiry on first request
			if count == 1 {
				redisClient.Expire(key, RateLimitWindow)
			}

			if count > RateLimit {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", RateLimit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Rate limit exceeded. Try again later."}`))
				return
			}

			remaining := RateLimit - int(count)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", RateLimit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			next.ServeHTTP(w, r)
		})
	}
}
