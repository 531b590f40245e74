// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package config provides layered configuration for the Placemark server.
//
// Configuration is loaded with koanf v2 in three layers with increasing
// precedence: built-in defaults, an optional YAML config file, and
// environment variables. Call Load once at startup and pass the resulting
// *Config to each component at construction time; nothing in this package
// is read as ambient process state after Load returns.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Geocode  GeocodeConfig  `koanf:"geocode"`
	Media    MediaConfig    `koanf:"media"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds BadgerDB settings.
type DatabaseConfig struct {
	// Path is the directory for the Badger value log and LSM tree.
	Path string `koanf:"path"`

	// InMemory runs the store without disk persistence. Intended for tests
	// and local experiments only; all data is lost on shutdown.
	InMemory bool `koanf:"in_memory"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// JWTSecret signs access tokens (HMAC-SHA256). Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the access token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`

	// LoginRateLimit is the max login attempts per IP per window.
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`

	// RateLimitReqs is the general per-IP request budget per window.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// GeocodeConfig holds coordinate resolver settings.
type GeocodeConfig struct {
	// BaseURL of the geocoding provider, e.g. https://geocode.maps.co.
	BaseURL string `koanf:"base_url"`

	// APIKey for the provider. Optional for providers that allow
	// unauthenticated use.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single resolution call end to end.
	Timeout time.Duration `koanf:"timeout"`

	// RatePerSecond is the client-side request rate toward the provider.
	// Free geocoding tiers commonly require at most 1 req/s.
	RatePerSecond float64 `koanf:"rate_per_second"`
}

// MediaConfig holds media storage settings.
type MediaConfig struct {
	// Backend selects the media store: "disk" or "s3".
	Backend string `koanf:"backend"`

	// Dir is the upload directory for the disk backend.
	Dir string `koanf:"dir"`

	// S3 settings for the MinIO-compatible backend.
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3UseSSL    bool   `koanf:"s3_use_ssl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration for values that would make the server
// unusable or insecure. It is called by Load; call it directly when
// constructing a Config by hand in tests.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return c.validateDatabase()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive")
	}
	// bcrypt rejects costs outside 4..31; anything under 10 is too weak for
	// stored credentials.
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost must be in 10..31, got %d", c.Security.BcryptCost)
	}
	return nil
}

func (c *Config) validateGeocode() error {
	if c.Geocode.BaseURL == "" {
		return fmt.Errorf("geocode.base_url is required")
	}
	u, err := url.Parse(c.Geocode.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("geocode.base_url must be a valid http(s) URL: %q", c.Geocode.BaseURL)
	}
	if c.Geocode.Timeout <= 0 {
		return fmt.Errorf("geocode.timeout must be positive")
	}
	if c.Geocode.RatePerSecond <= 0 {
		return fmt.Errorf("geocode.rate_per_second must be positive")
	}
	return nil
}

func (c *Config) validateMedia() error {
	switch strings.ToLower(c.Media.Backend) {
	case "disk":
		if c.Media.Dir == "" {
			return fmt.Errorf("media.dir is required for the disk backend")
		}
	case "s3":
		if c.Media.S3Endpoint == "" || c.Media.S3Bucket == "" {
			return fmt.Errorf("media.s3_endpoint and media.s3_bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("media.backend must be \"disk\" or \"s3\", got %q", c.Media.Backend)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	return nil
}
