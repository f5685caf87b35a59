package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Auth        AuthConfig      `yaml:"auth"`
	Bootstrap   BootstrapConfig `yaml:"bootstrap"`
	Invite      InviteConfig    `yaml:"invite"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains token signing configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

// BootstrapConfig contains the development-only initial admin credentials.
// The seed only runs when the store is empty and environment != production.
type BootstrapConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// InviteConfig contains invite code configuration
type InviteConfig struct {
	Validity string `yaml:"validity"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Environment validation
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf("environment must be 'development' or 'production'")
	}

	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	// Database validation
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Auth validation
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.JWTSecret == "devstudio-secret" && c.IsProduction() {
		fmt.Fprintf(os.Stderr, "WARNING: Using default JWT secret in production. Tokens will be insecure!\n")
	}
	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		return fmt.Errorf("auth.token_ttl is invalid: %w", err)
	}

	// Invite validation
	if _, err := parseDuration(c.Invite.Validity); err != nil {
		return fmt.Errorf("invite.validity is invalid: %w", err)
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

// GetTokenTTL returns the session token lifetime as time.Duration
func (c *Config) GetTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.TokenTTL)
	return d
}

// GetInviteValidity returns the invite code lifetime as time.Duration
func (c *Config) GetInviteValidity() time.Duration {
	d, _ := parseDuration(c.Invite.Validity)
	return d
}

// Default returns a configuration with development defaults
func Default() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{ListenAddr: ":5001"},
		Database:    DatabaseConfig{Path: "devstudio.db"},
		Auth: AuthConfig{
			JWTSecret: "devstudio-secret",
			TokenTTL:  "2h",
		},
		Bootstrap: BootstrapConfig{
			Username: "admin",
			Password: "admin",
			Email:    "admin@example.com",
		},
		Invite:  InviteConfig{Validity: "24h"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// parseDuration parses duration with support for days (e.g., "7d")
func parseDuration(s string) (time.Duration, error) {
	// Handle "d" suffix for days
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, err
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
