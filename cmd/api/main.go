package main

import (
	"log"
	"net/http"
	"time"

	"couponhub/internal/cache"
	"couponhub/internal/config"
	"couponhub/internal/database"
	"couponhub/internal/handlers"
	"couponhub/internal/lock"
	"couponhub/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.New(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("internal/database/migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := cache.NewRedis(cfg.RedisAddr())
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	locker := lock.NewRedisLock(redisClient.Client())
	couponService := service.NewCouponService(db, locker)
	couponHandler := handlers.NewCouponHandler(couponService)

	router := handlers.NewRouter(couponHandler, db, redisClient)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.ListenAddr)
	log.Println("Available endpoints:")
	log.Println("  GET  /health")
	log.Println("  POST /api/coupons")
	log.Println("  GET  /api/coupons/{couponID}")
	log.Println("  GET  /api/coupons/{couponID}/stock")
	log.Println("  GET  /api/coupons/user/{userID}")
	log.Println("  POST /api/coupons/issue")
	log.Println("  POST /api/coupons/issue/pessimistic")
	log.Println("  POST /api/coupons/issue/optimistic")
	log.Println("  POST /api/coupons/issue/atomic")
	log.Println("  POST /api/coupons/issue/redis")
	log.Println("  POST /api/coupons/use")
	log.Println("  POST /api/coupons/cancel")

	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
