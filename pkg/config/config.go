// Package config loads the service configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds every setting the binary reads. A .env file in the working
// directory is loaded by the entrypoint before Load runs.
type Config struct {
	Storage        string        `envconfig:"STORAGE" default:"postgres"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DBMaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLife  time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`

	RedisAddr    string `envconfig:"REDIS_ADDR"`
	EventsStream string `envconfig:"EVENTS_STREAM" default:"salesflow:pedidos"`

	OtelHost        string  `envconfig:"OTEL_HOST"`
	OtelProbability float64 `envconfig:"OTEL_PROBABILITY" default:"1.0"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8443"`
	TLSCert         string        `envconfig:"TLS_CERT"`
	TLSKey          string        `envconfig:"TLS_KEY"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE=postgres")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown STORAGE %q", c.Storage)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	if c.OtelProbability < 0 || c.OtelProbability > 1 {
		return errors.Errorf("OTEL_PROBABILITY must be within [0,1], got %v", c.OtelProbability)
	}
	return nil
}

// TLS reports whether the server should terminate TLS itself.
func (c Config) TLS() bool {
	return c.TLSCert != ""
}
