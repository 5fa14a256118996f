package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cart store backends.
const (
	CartStoreDynamo = "dynamodb"
	CartStoreRedis  = "redis"
)

// Config holds everything the API and worker read from the environment.
type Config struct {
	Env      string
	RunLocal bool
	Addr     string

	CartStore        string
	CartsTable       string
	RedisAddr        string
	RedisPassword    string
	CartTTL          time.Duration
	IdempotencyTable string
	IdempotencyTTL   time.Duration

	AnalyticsQueueURL string
	MetricsNamespace  string

	StripeSecretKey string
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	envFile := godotenv.Load() == nil

	cartTTL, err := durationEnv("CART_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, envFile, err
	}
	idempTTL, err := durationEnv("IDEMPOTENCY_TTL", 48*time.Hour)
	if err != nil {
		return nil, envFile, err
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "production"),
		RunLocal:          os.Getenv("RUN_LOCAL") == "true",
		Addr:              getEnv("ADDR", ":8080"),
		CartStore:         getEnv("CART_STORE", CartStoreDynamo),
		CartsTable:        getEnv("CARTS_TABLE", "carts"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		CartTTL:           cartTTL,
		IdempotencyTable:  os.Getenv("IDEMPOTENCY_TABLE"),
		IdempotencyTTL:    idempTTL,
		AnalyticsQueueURL: os.Getenv("ANALYTICS_QUEUE_URL"),
		MetricsNamespace:  getEnv("METRICS_NAMESPACE", "Storefront/Cart"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
	}

	if cfg.CartStore != CartStoreDynamo && cfg.CartStore != CartStoreRedis {
		return nil, envFile, fmt.Errorf("unknown CART_STORE %q", cfg.CartStore)
	}
	return cfg, envFile, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv accepts Go durations ("720h") or a plain number of seconds.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
