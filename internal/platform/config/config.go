package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server binary reads from the environment.
type Config struct {
	Addr string

	// PostgresDSN enables the SQL-backed inventory ledger when set;
	// otherwise the in-memory store is used.
	PostgresDSN string

	// RedisURL enables the shared disaster-state store when set.
	Redis RedisConfig

	// KafkaBrokers enables the event broker sink when non-empty; events
	// fall back to the log sink otherwise.
	KafkaBrokers []string
	KafkaTopic   string

	// BaseRadiusKm is the normal proximity search radius; DisasterRadiusKm
	// applies while a region is in disaster mode.
	BaseRadiusKm     float64
	DisasterRadiusKm float64

	// CancelWindow is the grace period for a donor to withdraw an
	// acceptance. DonationCooldown is the post-donation ineligibility
	// period, suspended while disaster mode is active.
	CancelWindow     time.Duration
	DonationCooldown time.Duration
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("BLOODLINK_ADDR", ":8080"),
		PostgresDSN:      os.Getenv("BLOODLINK_POSTGRES_DSN"),
		KafkaTopic:       envOr("BLOODLINK_KAFKA_TOPIC", "bloodlink.events"),
		BaseRadiusKm:     envFloat("BLOODLINK_BASE_RADIUS_KM", 15),
		DisasterRadiusKm: envFloat("BLOODLINK_DISASTER_RADIUS_KM", 30),
		CancelWindow:     envDuration("BLOODLINK_CANCEL_WINDOW", 5*time.Minute),
		DonationCooldown: envDuration("BLOODLINK_DONATION_COOLDOWN", 90*24*time.Hour),
		Redis: RedisConfig{
			URL:          os.Getenv("BLOODLINK_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("BLOODLINK_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
