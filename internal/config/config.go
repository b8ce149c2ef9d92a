package config

import (
	"os"
	"strconv"
	"time"

	"churnsight/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `validate:"required"`
	Ops      OpsConfig      ``
	Database DatabaseConfig ``
	Artifact ArtifactConfig `validate:"required"`
	Search   SearchConfig   ``
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port        string `validate:"required"`
	GinMode     string
	AllowOrigin string
}

// OpsConfig holds the operational (health/metrics) listener settings
type OpsConfig struct {
	Port    string
	Enabled bool
}

// DatabaseConfig holds audit-log database settings. The URL is optional:
// without one the service runs with auditing disabled.
type DatabaseConfig struct {
	URL string
}

// ArtifactConfig holds the trained-artifact bundle location
type ArtifactConfig struct {
	ManifestPath string `validate:"required"`
}

// SearchConfig holds counterfactual search limits
type SearchConfig struct {
	Budget        time.Duration `validate:"gt=0"`
	MaxConcurrent int64         `validate:"gt=0"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8000"),
			GinMode:     getEnvOrDefault("GIN_MODE", ""),
			AllowOrigin: getEnvOrDefault("CORS_ALLOW_ORIGIN", "http://localhost:3000"),
		},
		Ops: OpsConfig{
			Port:    getEnvOrDefault("OPS_PORT", "9090"),
			Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Artifact: ArtifactConfig{
			ManifestPath: getEnvOrDefault("ARTIFACT_MANIFEST", "artifacts/manifest.json"),
		},
		Search: SearchConfig{
			Budget:        getEnvDurationOrDefault("CF_SEARCH_BUDGET", 2*time.Second),
			MaxConcurrent: int64(getEnvIntOrDefault("CF_MAX_CONCURRENT", 4)),
		},
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid("configuration validation failed"), err.Error())
	}

	return config, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
