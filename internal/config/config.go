package config

import (
	"fmt"

	pkgconfig "github.com/marviero/backoffice/pkg/config"
)

// devSecret is the fallback JWT secret for local development. Production
// refuses to start with it.
const devSecret = "dev-secret-change-me"

// Config holds all configuration for the backoffice server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Auth
	JWTSecret      string   `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"backoffice"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"backoffice_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"backoffice_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"backoffice-realtime"`

	// Elasticsearch; empty means the in-memory engine.
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:""`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:""`

	// Invoicing
	InvoiceTaxBps int64  `env:"INVOICE_TAX_BPS" envDefault:"2100"`
	WebhookURL    string `env:"INVOICE_WEBHOOK_URL" envDefault:""`
	WebhookSecret string `env:"INVOICE_WEBHOOK_SECRET" envDefault:""`

	// Tracing
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load backoffice config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether we run with production hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.IsProduction() {
		if c.JWTSecret == devSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set in production")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
	}
	if c.InvoiceTaxBps < 0 || c.InvoiceTaxBps > 10000 {
		return fmt.Errorf("invalid tax rate: %d bps", c.InvoiceTaxBps)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
