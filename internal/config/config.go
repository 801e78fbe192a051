package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/remindhub/reminder-pipeline/internal/provider"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
// Both binaries (server and worker) load the same struct and read the slices
// of it they need.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Delayed job queue policy (fixed by the producer at startup)
	QueueName         string
	JobMaxAttempts    int
	JobBackoffBase    time.Duration
	VisibilityTimeout time.Duration

	// Push provider
	PushBaseURL string
	PushTimeout time.Duration

	// Consumer
	Workers       int
	PollInterval  time.Duration
	ClaimBatch    int
	SendRateLimit int
	MetricsPort   string
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		QueueName:         getEnv("QUEUE_NAME", "reminders"),
		JobMaxAttempts:    getInt("JOB_MAX_ATTEMPTS", 3),
		JobBackoffBase:    getDuration("JOB_BACKOFF_BASE", time.Second),
		VisibilityTimeout: getDuration("JOB_VISIBILITY_TIMEOUT", time.Minute),

		PushBaseURL: getEnv("PUSH_BASE_URL", provider.DefaultExpoBaseURL),
		PushTimeout: getDuration("PUSH_TIMEOUT", 10*time.Second),

		Workers:       getInt("WORKERS", 5),
		PollInterval:  getDuration("POLL_INTERVAL", 5*time.Second),
		ClaimBatch:    getInt("CLAIM_BATCH", 100),
		SendRateLimit: getInt("SEND_RATE_LIMIT", 100),
		MetricsPort:   getEnv("METRICS_PORT", "9091"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
