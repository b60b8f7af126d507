// Package config provides centralized configuration management for the import service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// A *Config is built once in main and passed to every component that needs it;
// nothing reads the environment after startup.
package config

import (
	"strconv"
	"time"
)

// Downstream modes.
const (
	ModeHTTP     = "http"
	ModePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Import     ImportConfig
	Downstream DownstreamConfig
	Database   DatabaseConfig
	Events     EventsConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// ImportConfig holds import pipeline settings.
type ImportConfig struct {
	// MaxRows is the row-count ceiling per request (default: 50000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"50000"`

	// MaxBodyBytes bounds the JSON request body (default: 64MB)
	MaxBodyBytes int64 `env:"IMPORT_MAX_BODY_BYTES" default:"67108864"`

	// Workers is the number of goroutines normalizing rows (default: 4)
	Workers int `env:"IMPORT_WORKERS" default:"4"`

	// MaxConcurrent is the maximum number of imports processed at once (default: 5)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an import waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
}

// DownstreamConfig describes the persistence collaborator.
type DownstreamConfig struct {
	// Mode selects the submitter: http or postgres (default: http)
	Mode string `env:"DOWNSTREAM_MODE" default:"http"`

	// URL is the base URL of the bulk-import API
	URL string `env:"DOWNSTREAM_URL"`

	// FallbackURL is used when URL is unset (default: http://localhost:3000)
	FallbackURL string `env:"DOWNSTREAM_FALLBACK_URL" default:"http://localhost:3000"`

	// Token is sent as a bearer token on every downstream call
	Token string `env:"DOWNSTREAM_TOKEN" secret:"true"`

	// Timeout bounds the single downstream call per import (default: 60s)
	Timeout time.Duration `env:"DOWNSTREAM_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL settings for the postgres downstream mode.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required when DOWNSTREAM_MODE=postgres)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" secret:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// EventsConfig holds settings for import completion events.
type EventsConfig struct {
	// Brokers is a comma-separated Kafka broker list; empty disables events
	Brokers []string `env:"EVENTS_BROKERS"`

	// Topic receives one message per finished import (default: vet-imports)
	Topic string `env:"EVENTS_TOPIC" default:"vet-imports"`

	// Timeout bounds each publish (default: 5s)
	Timeout time.Duration `env:"EVENTS_TIMEOUT" default:"5s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per IP (default: 60)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// ImportSecret is the shared secret callers must send; empty disables the check
	ImportSecret string `env:"IMPORT_SECRET" secret:"true"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// BaseURL returns the downstream base URL, falling back to FallbackURL.
func (c *DownstreamConfig) BaseURL() string {
	if c.URL != "" {
		return c.URL
	}
	return c.FallbackURL
}

// EventsEnabled reports whether completion events should be published.
func (c *EventsConfig) EventsEnabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}
