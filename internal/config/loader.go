package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file. Fields the file omits keep
// their development defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment
// variable overrides. A missing file is not an error; defaults plus env
// overrides are used instead.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	// Apply environment variable overrides
	if env := os.Getenv("DEVSTUDIO_ENV"); env != "" {
		cfg.Environment = env
	}

	if listenAddr := os.Getenv("DEVSTUDIO_LISTEN_ADDR"); listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if dbPath := os.Getenv("DEVSTUDIO_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if username := os.Getenv("INIT_ADMIN_USERNAME"); username != "" {
		cfg.Bootstrap.Username = username
	}

	if password := os.Getenv("INIT_ADMIN_PASSWORD"); password != "" {
		cfg.Bootstrap.Password = password
	}

	if email := os.Getenv("INIT_ADMIN_EMAIL"); email != "" {
		cfg.Bootstrap.Email = email
	}

	// Validate again after env overrides
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}

	return cfg, nil
}
