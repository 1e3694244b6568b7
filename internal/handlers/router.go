package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"couponhub/internal/cache"
	"couponhub/internal/database"
	"couponhub/internal/middleware"
)

// NewRouter builds the HTTP router for the coupon service
func NewRouter(h *CouponHandler, db *database.DB, redisClient *cache.Redis) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
	}))
	r.Use(middleware.RateLimiter(redisClient))
	r.Use(middleware.Idempotency(redisClient))

	r.Route("/api/coupons", func(r chi.Router) {
		r.Post("/", h.CreateCoupon)
		r.Get("/{couponID}", h.GetCoupon)
		r.Get("/{couponID}/stock", h.GetCouponStock)
		r.Get("/user/{userID}", h.GetUserCoupons)

		r.Post("/issue", h.Issue)
		r.Post("/issue/pessimistic", h.IssueWithPessimisticLock)
		r.Post("/issue/optimistic", h.IssueWithOptimisticLock)
		r.Post("/issue/atomic", h.IssueWithAtomicOperation)
		r.Post("/issue/redis", h.IssueWithRedisLock)

		r.Post("/use", h.UseCoupon)
		r.Post("/cancel", h.CancelCoupon)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		dbStatus := "connected"
		if err := db.Ping(); err != nil {
			dbStatus = "disconnected"
		}
		redisStatus := "connected"
		if err := redisClient.Ping(); err != nil {
			redisStatus = "disconnected"
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"database":  dbStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	return r
}
