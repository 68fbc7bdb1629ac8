// Package config provides centralized configuration management for the
// loader. It reads environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

// ServerConfig holds settings for the storage-event HTTP server.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds the whole file run triggered by an event, so it
	// is generous (default: 15m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings. Either URL or the
// Cloud SQL instance settings must be present.
type DatabaseConfig struct {
	// URL is a plain PostgreSQL connection string.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// InstanceConnectionName selects the Cloud SQL connector path
	// (project:region:instance). When set, User/Password/Name apply.
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	User     string `env:"DB_USER"`
	Password string `env:"DB_PASS"`
	Name     string `env:"DB_NAME"`

	// Schema is applied as the connection search_path (default: public)
	Schema string `env:"DB_SCHEMA" default:"public"`

	// MaxConns is the maximum number of pooled connections (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of open connections (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes idle connections after this long (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	// Bucket is the default bucket for `etl run` when none is given.
	Bucket string `env:"BUCKET_NAME"`

	// IngestPrefix restricts event-driven processing to objects under this
	// prefix (default: ingesta_drive/). Empty disables the check.
	IngestPrefix string `env:"INGEST_PREFIX" default:"ingesta_drive/"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: json)
	Format string `env:"LOG_FORMAT" default:"json"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that the configuration is usable, aggregating every
// failure into one error so startup logs show the whole problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" && c.Database.InstanceConnectionName == "" {
		errs = append(errs, "either DATABASE_URL or INSTANCE_CONNECTION_NAME is required")
	}
	if c.Database.InstanceConnectionName != "" {
		if c.Database.User == "" || c.Database.Password == "" || c.Database.Name == "" {
			errs = append(errs, "DB_USER, DB_PASS and DB_NAME are required with INSTANCE_CONNECTION_NAME")
		}
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a loggable representation with credentials masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Database: {URL: [MASKED], Instance: %q, MaxConns: %d}, Storage: {Bucket: %q, IngestPrefix: %q}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), c.Database.InstanceConnectionName, c.Database.MaxConns,
		c.Storage.Bucket, c.Storage.IngestPrefix, c.Logging.Level, c.Logging.Format,
	)
}
