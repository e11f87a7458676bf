package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/ghstore/internal/domain"
	pkgconfig "github.com/utafrali/ghstore/pkg/config"
	"github.com/utafrali/ghstore/pkg/database"
	"github.com/utafrali/ghstore/pkg/httpclient"
	"github.com/utafrali/ghstore/pkg/phone"
	"github.com/utafrali/ghstore/pkg/tracing"
)

// ServiceName identifies the binary in logs, metrics and traces.
const ServiceName = "ghstore"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Redis (carts)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// Cart TTL in hours (default: 7 days)
	CartTTLHours int `env:"CART_TTL_HOURS" envDefault:"168"`

	// PostgreSQL (addresses)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"ghstore"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"ghstore_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"ghstore"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"25"`

	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Inventory service. Empty disables stock lookups; items added without
	// their own stock ceiling are then capped at the per-item limit.
	InventoryServiceURL string            `env:"INVENTORY_SERVICE_URL" envDefault:""`
	InventoryHTTP       httpclient.Config `envPrefix:"INVENTORY_HTTP_"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pricing
	Currency              string          `env:"CURRENCY" envDefault:"GHS"`
	FreeShippingThreshold decimal.Decimal `env:"FREE_SHIPPING_THRESHOLD" envDefault:"500"`
	BaseShippingFee       decimal.Decimal `env:"BASE_SHIPPING_FEE" envDefault:"15"`
	TaxRate               decimal.Decimal `env:"TAX_RATE" envDefault:"0.125"`

	// Phone parsing policy
	PhoneAllowMissingLeadingZero bool `env:"PHONE_ALLOW_MISSING_LEADING_ZERO" envDefault:"true"`

	// Per-client limit on the phone endpoints. 0 RPS disables it.
	PhoneRateLimitRPS   float64 `env:"PHONE_RATE_LIMIT_RPS" envDefault:"20"`
	PhoneRateLimitBurst int     `env:"PHONE_RATE_LIMIT_BURST" envDefault:"40"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// LoadFrom reads configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environ); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.CartTTLHours < 1 {
		errs = append(errs, fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours))
	}
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate))
	}
	if c.FreeShippingThreshold.IsNegative() {
		errs = append(errs, errors.New("FREE_SHIPPING_THRESHOLD must not be negative"))
	}
	if c.BaseShippingFee.IsNegative() {
		errs = append(errs, errors.New("BASE_SHIPPING_FEE must not be negative"))
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("TAX_RATE must be between 0 and 1, got %s", c.TaxRate))
	}
	if c.PhoneRateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("PHONE_RATE_LIMIT_RPS must not be negative, got %v", c.PhoneRateLimitRPS))
	}
	if c.PhoneRateLimitRPS > 0 && c.PhoneRateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("PHONE_RATE_LIMIT_BURST must be positive, got %d", c.PhoneRateLimitBurst))
	}
	if len(strings.TrimSpace(c.Currency)) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY must be a 3-letter code, got %q", c.Currency))
	}

	return errors.Join(errs...)
}

// CartTTL returns the cart expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// Pricing returns the cart pricing policy.
func (c *Config) Pricing() domain.PricingConfig {
	return domain.PricingConfig{
		FreeShippingThreshold: c.FreeShippingThreshold,
		BaseShippingFee:       c.BaseShippingFee,
		TaxRate:               c.TaxRate,
	}
}

// PhoneOptions returns the phone parsing policy. Unrecognised input is always
// rejected; only the missing-leading-zero shape is configurable.
func (c *Config) PhoneOptions() phone.Options {
	opts := phone.DefaultOptions()
	opts.AllowMissingLeadingZero = c.PhoneAllowMissingLeadingZero
	return opts
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPass
	rc.DB = c.RedisDB
	rc.PoolSize = c.RedisPoolSize
	return rc
}

// Postgres returns the PostgreSQL connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	pc := database.DefaultPostgresConfig()
	pc.Host = c.PostgresHost
	pc.Port = c.PostgresPort
	pc.User = c.PostgresUser
	pc.Password = c.PostgresPassword
	pc.DBName = c.PostgresDB
	pc.SSLMode = c.PostgresSSLMode
	pc.MaxConns = c.PostgresMaxConns
	return pc
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}
