package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL is required only when
// STORE=postgres.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Storage backend: "memory" or "postgres"
	Store string

	// Database (postgres backend only)
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Redis business-record cache. Empty address disables caching.
	RedisAddr string
	CacheTTL  time.Duration

	// Kafka delivery stream. Empty broker list falls back to the
	// webhook notifier, then to log-only delivery.
	KafkaBrokers []string
	KafkaTopic   string

	// Outbound webhook notifier
	WebhookURL     string
	WebhookTimeout time.Duration

	// Dispatch worker pool
	DispatchWorkers int

	// Rate limiting: maximum sends per second per delivery channel
	RateLimit int
}

func Load() (*Config, error) {
	store := getEnv("STORE", "memory")
	if store != "memory" && store != "postgres" {
		return nil, fmt.Errorf("STORE must be memory or postgres, got %q", store)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if store == "postgres" && dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Store:       store,
		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  getDuration("CACHE_TTL", 5*time.Minute),

		KafkaBrokers: brokers,
		KafkaTopic:   getEnv("KAFKA_TOPIC", "waitline.notifications"),

		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookTimeout: getDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		DispatchWorkers: getInt("DISPATCH_WORKERS", 5),

		RateLimit: getInt("RATE_LIMIT_PER_CHANNEL", 100),
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
