package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig

	DefaultCaseManager string
}

// RedisConfig holds connection settings for the session store.
// An empty URL keeps sessions in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers      []string
	AuditTopic   string
	PollInterval time.Duration
	BatchSize    int
}

// AuthConfig configures admin sign-in.
type AuthConfig struct {
	AdminEmail        string
	AdminPasswordHash string
	SigningKey        string
	SessionTTL        time.Duration
}

// DefaultCaseManager is assigned to residents created without one.
const DefaultCaseManager = "Robin Mitchell"

// Load reads an optional .env file and then builds the config from the environment.
func Load() Server {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	signingKey := os.Getenv("SESSION_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           envOr("SAFENEST_ADDR", ":8080"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "json"),
		RequestTimeout: durationOr("REQUEST_TIMEOUT", 15*time.Second),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:   envOr("AUDIT_TOPIC", "safenest.audit"),
			PollInterval: durationOr("AUDIT_RELAY_INTERVAL", 2*time.Second),
			BatchSize:    intOr("AUDIT_RELAY_BATCH", 100),
		},
		Auth: AuthConfig{
			AdminEmail:        strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			SigningKey:        signingKey,
			SessionTTL:        durationOr("SESSION_TTL", 12*time.Hour),
		},
		DefaultCaseManager: envOr("DEFAULT_CASE_MANAGER", DefaultCaseManager),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
