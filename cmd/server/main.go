package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"helicone-chat/internal/config"
	"helicone-chat/internal/database"
	"helicone-chat/internal/handlers"
	"helicone-chat/internal/middleware"
	"helicone-chat/internal/router"
	"helicone-chat/internal/services"
)

func main() {
	log.Println("🚀 Starting Helicone Chat...")

	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Completion Client ────
	completion, err := services.NewCompletionClientFromConfig(cfg)
	switch {
	case err != nil:
		log.Printf("⚠ Completion client unavailable: %v", err)
	case completion != nil:
		log.Printf("✓ Completion client initialized (model=%s, base=%s)", cfg.Model, cfg.HeliconeBaseURL)
		if cfg.HeliconeAPIKey == "" {
			log.Println("  HELICONE_API_KEY not set, requests will not carry Helicone-Auth")
		}
	case cfg.HeliconeAPIKey != "":
		log.Println("  HELICONE_API_KEY is set but OPENAI_API_KEY is not, it will be ignored")
	}

	chatService := services.NewChatService(cfg, completion)
	log.Printf("✓ Chat service ready (mode=%s)", chatService.Mode())

	// ──── Step 3: Initialize Rate Limiter ────
	var (
		rateLimiter *middleware.RateLimiter
		redisClient *redis.Client
		memLimiter  *middleware.MemoryLimiter
	)
	switch {
	case cfg.RateLimitPerMinute == 0:
		log.Println("✓ Rate limiting disabled")
	case cfg.RedisURL != "":
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = middleware.NewRateLimiter(middleware.NewRedisLimiter(redisClient, cfg.RateLimitPerMinute))
		log.Printf("✓ Redis rate limiter connected (%d req/min)", cfg.RateLimitPerMinute)
	default:
		memLimiter = middleware.NewMemoryLimiter(cfg.RateLimitPerMinute)
		defer memLimiter.Close()
		rateLimiter = middleware.NewRateLimiter(memLimiter)
		log.Printf("✓ In-memory rate limiter started (%d req/min)", cfg.RateLimitPerMinute)
	}

	// ──── Step 4: Start HTTP Server ────
	r := router.New(
		handlers.NewChatHandler(chatService),
		handlers.NewHealthHandler(chatService.Mode()),
		rateLimiter,
		cfg.FrontendURL,
		cfg.TrustProxyHeaders,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("✓ Helicone Chat ready on http://localhost:%s", cfg.Port)
	log.Printf("  Chat: POST http://localhost:%s/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-done
}
