// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache / usage ledger (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Identity provider (OAuth). Token endpoint: {base}/v1/oauth/token,
	// userinfo: {base}/v1/oauth/userinfo.
	ProviderBaseURL      string `env:"PROVIDER_BASE_URL" envDefault:"https://auth.valyu.network"`
	ProviderClientID     string `env:"PROVIDER_CLIENT_ID" envDefault:""`
	ProviderClientSecret string `env:"PROVIDER_CLIENT_SECRET" envDefault:""`

	// Comma-separated exact-match allowlist of OAuth redirect URIs.
	AllowedRedirectURIs string `env:"ALLOWED_REDIRECT_URIS" envDefault:""`

	// Session tokens
	JWTSecret       string        `env:"JWT_SECRET" envDefault:""`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// Shared secret for the cron sweep endpoint.
	CronSecret string `env:"CRON_SECRET" envDefault:""`

	// Upstream search platform base URL (pass-through proxy).
	PlatformBaseURL string `env:"PLATFORM_BASE_URL" envDefault:"https://api.valyu.network"`
	PlatformAPIKey  string `env:"PLATFORM_API_KEY" envDefault:""`

	// Development conveniences. Neither has any effect in production.
	MockAuthEnabled bool   `env:"MOCK_AUTH_ENABLED" envDefault:"false"`
	ModelServerURL  string `env:"MODEL_SERVER_URL" envDefault:"http://localhost:11434"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UseMockAuth reports whether the mock identity provider should be
// selected at startup. Mock auth is never available in production.
func (c *Config) UseMockAuth() bool {
	return c.IsDevelopment() && c.MockAuthEnabled
}

// OAuthConfigured reports whether the confidential client credentials
// required for the token exchange are present.
func (c *Config) OAuthConfigured() bool {
	return c.ProviderClientID != "" && c.ProviderClientSecret != ""
}

// GetAllowedRedirectURIs parses the comma-separated allowlist.
// Matching against it is exact string comparison only.
func (c *Config) GetAllowedRedirectURIs() []string {
	return splitTrimmed(c.AllowedRedirectURIs)
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	return splitTrimmed(c.CORSAllowedOrigins)
}

func splitTrimmed(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	return cfg, nil
}
