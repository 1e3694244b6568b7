package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"couponhub/internal/cache"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotencyTTL       = 24 * time.Hour
)

type cachedResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays cached responses for retried POSTs that carry an
// Idempotency-Key header. A client retrying a timed-out issue request gets
// its original grant back instead of AlreadyIssued. Requests without the
// header pass through untouched.
func Idempotency(redisClient *cache.Redis) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get(IdempotencyKeyHeader)
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			cacheKey := "coupon:idem:" + idempotencyKey

			cached, err := redisClient.Get(cacheKey)
			if err == nil && cached != "" {
				var resp cachedResponse
				if err := json.Unmarshal([]byte(cached), &resp); err == nil {
					for k, v := range resp.Headers {
						w.Header().Set(k, v)
					}
					w.Header().Set("X-Idempotency-Replayed", "true")
					w.WriteHeader(resp.StatusCode)
					w.Write([]byte(resp.Body))
					return
				}
			}

			recorder := newResponseRecorder(w)
			next.ServeHTTP(recorder, r)

			resp := cachedResponse{
				StatusCode: recorder.statusCode,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       recorder.body.String(),
			}

			respJSON, err := json.Marshal(resp)
			if err == nil {
				redisClient.Set(cacheKey, string(respJSON), IdempotencyTTL)
			}
		})
	}
}
