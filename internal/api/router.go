package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nvoss/toolgate/internal/api/handler"
	customMiddleware "github.com/nvoss/toolgate/internal/api/middleware"
	"github.com/nvoss/toolgate/internal/config"
	"github.com/nvoss/toolgate/internal/domain"
	"github.com/nvoss/toolgate/internal/ratelimit"
	"github.com/nvoss/toolgate/internal/sandbox"
	"github.com/nvoss/toolgate/internal/security"
	"github.com/nvoss/toolgate/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, users domain.UserRepository, db handler.Pinger, counters ratelimit.CounterStore) (http.Handler, error) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	tokenManager := security.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize sandbox
	root, err := sandbox.NewRoot(cfg.Sandbox.Root)
	if err != nil {
		return nil, err
	}
	runner := sandbox.NewRunner(root, cfg.Sandbox.MaxOutputChars)

	// Initialize rate limiter
	limiter := ratelimit.New(counters, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)

	// Initialize services
	authService := service.NewAuthService(users, tokenManager)
	registry := service.NewRegistry()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	filesHandler := handler.NewFilesHandler(root, cfg.Sandbox.MaxUploadBytes)
	execHandler := handler.NewExecHandler(runner)
	serversHandler := handler.NewServersHandler(registry)

	// Middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(tokenManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(limiter, tokenManager)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public, rate limited by the anonymous bucket)
		r.Route("/auth", func(r chi.Router) {
			r.Use(rateLimitMiddleware.Limit)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)

			// Sandbox file access
			r.Route("/files", func(r chi.Router) {
				r.Post("/", filesHandler.Upload)
				r.Get("/", filesHandler.Download)
			})

			// Restricted command execution
			r.Post("/exec", execHandler.Run)

			// Tool server registry (admin only)
			r.Route("/servers", func(r chi.Router) {
				r.Use(customMiddleware.RequireAdmin)

				r.Get("/", serversHandler.List)
				r.Post("/", serversHandler.Link)
				r.Delete("/{name}", serversHandler.Unlink)
			})
		})
	})

	return r, nil
}
