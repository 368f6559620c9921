package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig selects the gorm dialector and its DSN.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

// RabbitMQConfig holds the broker URL and the topology used for order events.
// An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// RedisConfig configures the idempotency cache. An empty Addr disables it.
type RedisConfig struct {
	Addr           string
	IdempotencyTTL time.Duration
}

// PaymentsConfig configures the simulated payment gateway.
type PaymentsConfig struct {
	DeclineMethods []string
}

// Config is the application configuration.
type Config struct {
	AppEnv       string
	AppPort      string
	LogLevel     string
	JWTSecret    string
	SeedDemoData bool

	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Payments PaymentsConfig
}

// Load reads configuration from environment variables, falling back to the
// defaults below. If CONFIG_FILE is set, that file is read first and
// environment variables still take precedence.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:artmarket.db?cache=shared")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "artmarket.events")
	v.SetDefault("RABBITMQ_QUEUE", "order_events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("PAYMENT_DECLINE_METHODS", "")
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppEnv:       v.GetString("APP_ENV"),
		AppPort:      v.GetString("APP_PORT"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		JWTSecret:    v.GetString("JWT_SECRET"),
		SeedDemoData: v.GetBool("SEED_DEMO_DATA"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
			Queue:    v.GetString("RABBITMQ_QUEUE"),
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
		Payments: PaymentsConfig{
			DeclineMethods: splitList(v.GetString("PAYMENT_DECLINE_METHODS")),
		},
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	return cfg, nil
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
