package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`

	// Upstream REST API (Django)
	APIBaseURL    string `envconfig:"API_BASE_URL" required:"true"`
	APITimeoutSec int    `envconfig:"API_TIMEOUT_SEC" default:"15"`

	// Optional local verification of bearer tokens. Empty means tokens are
	// forwarded to the upstream API as-is and verified there.
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Empty keeps enrollments in memory and disables the progress sync queue.
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`
	RedisURL           string `envconfig:"REDIS_URL"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Landing page cache
	SupportedLocales          []string `envconfig:"SUPPORTED_LOCALES" default:"fr,ar,en"`
	LandingCacheTTLSec        int      `envconfig:"LANDING_CACHE_TTL_SEC" default:"300"`
	LandingRefetchCooldownSec int      `envconfig:"LANDING_REFETCH_COOLDOWN_SEC" default:"30"`
	LandingCourseLimit        int      `envconfig:"LANDING_COURSE_LIMIT" default:"8"`

	// S3-compatible media storage
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"formation-media"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3URLTTLSec int    `envconfig:"S3_URL_TTL_SEC" default:"900"`

	// Google Cloud
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
	ContactTopic       string `envconfig:"PUBSUB_CONTACT_TOPIC" default:"contact-submitted"`
	EnrollmentTopic    string `envconfig:"PUBSUB_ENROLLMENT_TOPIC" default:"enrollment-events"`

	// Progress sync worker settings
	ProgressSyncQueueName           string `envconfig:"PROGRESS_SYNC_QUEUE_NAME" default:"progress_sync_queue"`
	ProgressSyncPollTimeoutSec      int    `envconfig:"PROGRESS_SYNC_POLL_TIMEOUT_SEC" default:"30"`
	ProgressSyncPollMaxMsg          int    `envconfig:"PROGRESS_SYNC_POLL_MAX_MSG" default:"10"`
	ProgressSyncMaxRetries          int    `envconfig:"PROGRESS_SYNC_MAX_RETRIES" default:"5"`
	ProgressSyncBackoffInitialSec   int    `envconfig:"PROGRESS_SYNC_BACKOFF_INITIAL_SEC" default:"1"`
	ProgressSyncBackoffMaxSec       int    `envconfig:"PROGRESS_SYNC_BACKOFF_MAX_SEC" default:"60"`
	ProgressSyncDeadLetterQueueName string `envconfig:"PROGRESS_SYNC_DEAD_LETTER_QUEUE_NAME" default:"progress_sync_queue_dlq"`
	// Service token used by the worker when pushing progress upstream.
	ProgressSyncServiceToken string `envconfig:"PROGRESS_SYNC_SERVICE_TOKEN"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSec) * time.Second
}

func (c *Config) LandingCacheTTL() time.Duration {
	return time.Duration(c.LandingCacheTTLSec) * time.Second
}

func (c *Config) LandingRefetchCooldown() time.Duration {
	return time.Duration(c.LandingRefetchCooldownSec) * time.Second
}

func (c *Config) S3URLTTL() time.Duration {
	return time.Duration(c.S3URLTTLSec) * time.Second
}

// SecretFields returns pointers to the settings that may hold sm:// references.
func (c *Config) SecretFields() []*string {
	return []*string{
		&c.JWTSecret,
		&c.DBConnectionString,
		&c.RedisURL,
		&c.S3AccessKey,
		&c.S3SecretKey,
		&c.ProgressSyncServiceToken,
	}
}
