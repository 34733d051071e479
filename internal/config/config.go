// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type CartMode string

const (
	CartModeLocal  CartMode = "local"
	CartModeRemote CartMode = "remote"
)

type Config struct {
	HTTPPort           string
	GRPCPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	LogLevel  string
	LogFormat string

	CartMode         CartMode
	CartSyncRollback bool
	// CartStore selects the remote cart-item store: "memory" or "mongo".
	CartStore     string
	MongoURI      string
	MongoDatabase string

	// OrderStore selects the order store: "memory" or "postgres".
	OrderStore string
	Postgres   PostgresConfig

	CatalogDBPath string
	RedisAddr     string
	CacheTTL      time.Duration

	KafkaBrokers       []string
	NotificationsTopic string
	OrdersTopic        string
	CatalogTopic       string
	KafkaGroupID       string

	PromoLatency           time.Duration
	FreeshipWaivesDelivery bool

	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration

	BreakerTimeout  time.Duration
	BreakerFailures uint32

	// RateLimitRPS of 0 disables per-visitor rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GRPCPort:           getEnv("GRPC_PORT", "50051"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second, &errs),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		MaxRequestBodySize: 1 << 20, // 1MB

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CartMode:         CartMode(strings.ToLower(getEnv("CART_MODE", string(CartModeLocal)))),
		CartSyncRollback: getBool("CART_SYNC_ROLLBACK", true, &errs),
		CartStore:        strings.ToLower(getEnv("CART_STORE", "memory")),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "storefront"),

		OrderStore: strings.ToLower(getEnv("ORDER_STORE", "memory")),
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432, &errs),
			User:     getEnv("POSTGRES_USER", "storefront"),
			Password: getEnv("POSTGRES_PASSWORD", "storefront"),
			DBName:   getEnv("POSTGRES_DB", "storefront"),
		},

		CatalogDBPath: getEnv("CATALOG_DB_PATH", "storefront.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		CacheTTL:      getDuration("CACHE_TTL", 5*time.Minute, &errs),

		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "storefront-notifications"),
		OrdersTopic:        getEnv("KAFKA_ORDERS_TOPIC", "storefront-orders"),
		CatalogTopic:       getEnv("KAFKA_CATALOG_TOPIC", "catalog-changes"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "storefront"),

		PromoLatency:           getDuration("PROMO_LATENCY", 800*time.Millisecond, &errs),
		FreeshipWaivesDelivery: getBool("PROMO_FREESHIP_WAIVES_DELIVERY", true, &errs),

		SessionIdleTTL:       getDuration("SESSION_IDLE_TTL", 30*time.Minute, &errs),
		SessionSweepInterval: getDuration("SESSION_SWEEP_INTERVAL", time.Minute, &errs),

		BreakerTimeout:  getDuration("BREAKER_TIMEOUT", 10*time.Second, &errs),
		BreakerFailures: uint32(getInt("BREAKER_FAILURES", 5, &errs)),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20, &errs),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40, &errs),
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	switch c.CartMode {
	case CartModeLocal, CartModeRemote:
	default:
		errs = append(errs, fmt.Errorf("CART_MODE must be %q or %q, got %q", CartModeLocal, CartModeRemote, c.CartMode))
	}
	switch c.CartStore {
	case "memory", "mongo":
	default:
		errs = append(errs, fmt.Errorf("CART_STORE must be \"memory\" or \"mongo\", got %q", c.CartStore))
	}
	switch c.OrderStore {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("ORDER_STORE must be \"memory\" or \"postgres\", got %q", c.OrderStore))
	}
	if c.PromoLatency < 0 {
		errs = append(errs, errors.New("PROMO_LATENCY must not be negative"))
	}
	if c.SessionIdleTTL <= 0 || c.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TTL and SESSION_SWEEP_INTERVAL must be positive"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative"))
	}
	if c.BreakerFailures == 0 {
		errs = append(errs, errors.New("BREAKER_FAILURES must be positive"))
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid non-negative integer %q", key, value))
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
