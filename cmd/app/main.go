package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formation/internal/api/v1/router"
	"formation/internal/config"
	"formation/internal/logger"
	"formation/internal/secrets"

	"github.com/joho/godotenv"
)

// @title Formation API
// @version 1.0
// @description Backend-for-frontend of the formation e-learning platform
// @host localhost:8080
// @BasePath /v1
// @Schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	log := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Error loading config: %v", err)
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	ctx := context.Background()

	// 2. Resolve sm:// references against Secret Manager
	if err := secrets.ResolveConfig(ctx, cfg); err != nil {
		log.Fatal().Msgf("Failed to resolve secrets: %v", err)
	}

	// 3. Build router and its dependencies
	r, cleanup, err := router.New(ctx, cfg, log)
	if err != nil {
		cleanup()
		log.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer cleanup()

	// 4. Create HTTP server. Exports and upstream calls can be slow, so the
	// write timeout leaves room above the upstream timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.APITimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start server in a goroutine
	go func() {
		log.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Server forced to shutdown: %v", err)
	}
	log.Info().Msg("Server shut down gracefully")
}
