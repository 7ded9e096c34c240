package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nvoss/toolgate/internal/api"
	"github.com/nvoss/toolgate/internal/api/handler"
	"github.com/nvoss/toolgate/internal/config"
	"github.com/nvoss/toolgate/internal/domain"
	"github.com/nvoss/toolgate/internal/ratelimit"
	"github.com/nvoss/toolgate/internal/repository/postgres"
	"github.com/nvoss/toolgate/internal/repository/redis"
	"github.com/nvoss/toolgate/internal/repository/sqlite"
	"github.com/nvoss/toolgate/internal/security"
	"github.com/nvoss/toolgate/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Msg("Starting toolgate API server")

	ctx := context.Background()

	// Initialize user store
	var (
		users domain.UserRepository
		db    handler.Pinger
	)
	switch cfg.Database.Driver {
	case "postgres":
		pg, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pg.Close()
		users = postgres.NewUserRepository(pg)
		db = pg
	default:
		lite, err := sqlite.NewDB(cfg.Database.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer lite.Close()
		users = sqlite.NewUserRepository(lite)
		db = lite
	}

	// Initialize rate limit counter store
	var counters ratelimit.CounterStore
	if cfg.RateLimit.Store == "redis" {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		counters = redis.NewCounter(redisClient)
	} else {
		counters = ratelimit.NewMemoryStore()
	}

	// Bootstrap the admin account
	tokenManager := security.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	authService := service.NewAuthService(users, tokenManager)
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}

	// Initialize router
	router, err := api.NewRouter(cfg, users, db, counters)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize router")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
