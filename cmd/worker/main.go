package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"formation/internal/apiclient"
	"formation/internal/config"
	"formation/internal/database"
	"formation/internal/logger"
	"formation/internal/orchestrator/progresssync"
	"formation/internal/pgmq"
	"formation/internal/repository"
	"formation/internal/secrets"

	"github.com/joho/godotenv"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "progress-sync", "Worker mode: progress-sync")
	flag.Parse()

	log := logger.New()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Error loading config: %v", err)
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := secrets.ResolveConfig(ctx, cfg); err != nil {
		log.Fatal().Msgf("Failed to resolve secrets: %v", err)
	}
	if cfg.DBConnectionString == "" {
		log.Fatal().Msg("DB_CONNECTION_STRING is required by the worker")
	}

	pool, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer pool.Close()

	pgmqClient := pgmq.New(pool)
	log.Info().Msg("PGMQ client initialized")

	var runErr error
	switch *mode {
	case "progress-sync":
		worker := progresssync.NewWorker(
			pgmqClient,
			repository.NewEnrollmentRepo(pool),
			repository.NewDLQRepository(pool),
			apiclient.New(cfg.APIBaseURL, cfg.APITimeout(), log),
			progresssync.Config{
				QueueName:           cfg.ProgressSyncQueueName,
				DeadLetterQueueName: cfg.ProgressSyncDeadLetterQueueName,
				PollTimeoutSec:      cfg.ProgressSyncPollTimeoutSec,
				PollMaxMsg:          cfg.ProgressSyncPollMaxMsg,
				MaxRetries:          cfg.ProgressSyncMaxRetries,
				BackoffInitial:      time.Duration(cfg.ProgressSyncBackoffInitialSec) * time.Second,
				BackoffMax:          time.Duration(cfg.ProgressSyncBackoffMaxSec) * time.Second,
				RequestTimeout:      cfg.APITimeout(),
				ServiceToken:        cfg.ProgressSyncServiceToken,
			},
			log,
		)
		runErr = worker.Run(ctx)
	default:
		log.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		log.Fatal().Msgf("%s worker failed: %v", *mode, runErr)
	}
	log.Info().Msgf("%s worker stopped gracefully", *mode)
}
