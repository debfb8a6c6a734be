package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"helicone-chat/internal/handlers"
	"helicone-chat/internal/middleware"
)

// New wires the HTTP surface. rateLimiter may be nil to disable limiting.
//
// trustProxyHeaders enables chi's RealIP, which takes the client address from
// X-Forwarded-For / X-Real-IP. Only turn it on behind a proxy that overwrites
// those headers: otherwise clients pick their own rate-limit key.
func New(
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
	rateLimiter *middleware.RateLimiter,
	frontendURL string,
	trustProxyHeaders bool,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if trustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{frontendURL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Health)

	r.Group(func(r chi.Router) {
		if rateLimiter != nil {
			r.Use(rateLimiter.Middleware)
		}
		r.Post("/chat", chatHandler.Chat)
	})

	return r
}
