package main

import (
	"context"
	"flag"
	"time"

	"formation/internal/config"
	"formation/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Creates the topics the API publishes to on a local Pub/Sub emulator, each
// with a pull subscription and a dead-letter topic for downstream consumers.
func main() {
	reset := flag.Bool("reset", false, "Delete every topic and subscription on the emulator first")
	flag.Parse()

	log := logger.New()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		log.Fatal().Msg("GCP_PROJECT_ID is not set in the environment.")
	}
	if cfg.PubSubEmulatorHost == "" {
		log.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set; this tool only targets the emulator.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		log.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	if *reset {
		resetEmulator(ctx, client, log)
	}
	for _, topicID := range []string{cfg.ContactTopic, cfg.EnrollmentTopic} {
		ensureTopic(ctx, client, log, topicID)
	}
	log.Info().Msg("Pub/Sub setup for local environment complete.")
}

func resetEmulator(ctx context.Context, client *pubsub.Client, log zerolog.Logger) {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatal().Msgf("Failed to list subscriptions: %v", err)
		}
		if err := sub.Delete(ctx); err != nil {
			log.Warn().Msgf("Failed to delete subscription %s: %v", sub.ID(), err)
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatal().Msgf("Failed to list topics: %v", err)
		}
		if err := topic.Delete(ctx); err != nil {
			log.Warn().Msgf("Failed to delete topic %s: %v", topic.ID(), err)
		}
	}
	log.Info().Msg("Emulator reset")
}

func ensureTopic(ctx context.Context, client *pubsub.Client, log zerolog.Logger, topicID string) {
	const retention = 7 * 24 * time.Hour

	dlqTopic := createTopicIfNotExists(ctx, client, log, topicID+"-dlq", retention)
	mainTopic := createTopicIfNotExists(ctx, client, log, topicID, retention)

	createSubscriptionIfNotExists(ctx, client, log, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:       mainTopic,
		AckDeadline: 60 * time.Second,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: 10 * time.Second,
			MaximumBackoff: 600 * time.Second,
		},
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	})
	createSubscriptionIfNotExists(ctx, client, log, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:       dlqTopic,
		AckDeadline: 60 * time.Second,
	})
}

func createTopicIfNotExists(ctx context.Context, client *pubsub.Client, log zerolog.Logger, topicID string, retention time.Duration) *pubsub.Topic {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		log.Fatal().Msgf("Failed to check if topic %s exists: %v", topicID, err)
	}
	if exists {
		log.Info().Msgf("Topic %s already exists", topicID)
		return topic
	}

	log.Info().Msgf("Creating topic %s with %v retention", topicID, retention)
	created, err := client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
	if err != nil {
		log.Fatal().Msgf("Failed to create topic %s: %v", topicID, err)
	}
	return created
}

func createSubscriptionIfNotExists(ctx context.Context, client *pubsub.Client, log zerolog.Logger, subID string, cfg pubsub.SubscriptionConfig) {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Fatal().Msgf("Failed to check if subscription %s exists: %v", subID, err)
	}
	if exists {
		log.Info().Msgf("Subscription %s already exists", subID)
		return
	}
	log.Info().Msgf("Creating subscription %s", subID)
	if _, err := client.CreateSubscription(ctx, subID, cfg); err != nil {
		log.Fatal().Msgf("Failed to create subscription %s: %v", subID, err)
	}
}
