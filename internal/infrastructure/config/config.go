package config

import (
	"fmt"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	OTLP     OTLPConfig
	Log      LogConfig
	Storage  StorageConfig
	Notifier NotifierConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// Addr returns host:port for the HTTP listener
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type OTLPConfig struct {
	Enabled     bool   `envconfig:"OTEL_ENABLED" default:"true"`
	Endpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"products-api"`
	Environment string `envconfig:"OTEL_ENVIRONMENT" default:"development"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Driver          string        `envconfig:"STORAGE_DRIVER" default:"memory"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

const (
	NotifierLog     = "log"
	NotifierNoOp    = "noop"
	NotifierWebhook = "webhook"
)

type NotifierConfig struct {
	Kind              string        `envconfig:"NOTIFIER_KIND" default:"log"`
	WebhookURL        string        `envconfig:"NOTIFIER_WEBHOOK_URL"`
	Timeout           time.Duration `envconfig:"NOTIFIER_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"NOTIFIER_RATE_LIMIT" default:"5"`
	Burst             int           `envconfig:"NOTIFIER_BURST" default:"10"`
	BreakerTimeout    time.Duration `envconfig:"NOTIFIER_BREAKER_TIMEOUT" default:"30s"`
	BreakerFailures   uint32        `envconfig:"NOTIFIER_BREAKER_FAILURES" default:"5"`
}

type MetricsConfig struct {
	// DurationMilliseconds adds a millisecond request-duration histogram on
	// top of the standard seconds-based otelhttp metric.
	DurationMilliseconds bool `envconfig:"METRICS_DURATION_MS" default:"false"`
}

// LoadConfig loads configuration from environment variables. Values from
// .env.local are applied first when the file exists; real environment
// variables win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Notifier.Kind {
	case NotifierLog, NotifierNoOp:
	case NotifierWebhook:
		if c.Notifier.WebhookURL == "" {
			return fmt.Errorf("NOTIFIER_WEBHOOK_URL is required when NOTIFIER_KIND=%s", NotifierWebhook)
		}
	default:
		return fmt.Errorf("unknown NOTIFIER_KIND %q", c.Notifier.Kind)
	}
	return nil
}
