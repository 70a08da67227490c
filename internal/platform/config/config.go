// Package config builds runtime configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration
}

// Database captures PostgreSQL connection settings. An empty DSN selects
// the in-memory stores, which keeps local development and unit tests free
// of infrastructure.
type Database struct {
	DSN string
}

// Redis captures Redis connection settings for the OTP store. An empty URL
// disables Redis and falls back to the in-memory OTP store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures broker settings for the audit outbox relay. Empty brokers
// disable the relay; audit events still land in the outbox table.
type Kafka struct {
	Brokers  []string
	ClientID string
}

// Verification captures domain tunables for the verification lifecycle.
type Verification struct {
	ValidityDays  int
	PublicBaseURL string
	// SweepInterval controls how often the expiry sweep runs.
	SweepInterval time.Duration
}

// Assets captures where binary artifacts (selfies, QR images) live.
type Assets struct {
	Root string
}

// Notifier captures outbound email settings.
type Notifier struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// Config is the full service configuration.
type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	Kafka        Kafka
	Verification Verification
	Assets       Assets
	Notifier     Notifier
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("SURAKSHA_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenTTL:      envDurationOr("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Database: Database{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:  splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			ClientID: envOr("KAFKA_CLIENT_ID", "suraksha"),
		},
		Verification: Verification{
			ValidityDays:  envIntOr("VERIFICATION_VALIDITY_DAYS", 365),
			PublicBaseURL: envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
			SweepInterval: envDurationOr("VERIFICATION_SWEEP_INTERVAL", time.Hour),
		},
		Assets: Assets{
			Root: envOr("ASSET_ROOT", "data/assets"),
		},
		Notifier: Notifier{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromEmail:      envOr("NOTIFY_FROM_EMAIL", "no-reply@suraksha.gov.in"),
			FromName:       envOr("NOTIFY_FROM_NAME", "Jan Suraksha"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
