package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Transport names accepted by ServerConfig.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the top-level configuration for the aoma-mesh server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Database DatabaseConfig `yaml:"database"`
	Health   HealthConfig   `yaml:"health"`
	LogLevel string         `yaml:"logLevel"`
}

// ServerConfig controls the transport bindings.
type ServerConfig struct {
	Transport string `yaml:"transport"` // "stdio", "http", or both when empty
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`

	// MaxPortAttempts bounds the automatic fallback to the next free port
	// when the configured one is occupied.
	MaxPortAttempts int `yaml:"maxPortAttempts"`

	// DefaultToolTimeout applies to tools that do not declare their own.
	DefaultToolTimeout time.Duration `yaml:"defaultToolTimeout"`
}

// OpenAIConfig holds credentials for the external completion service.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// DatabaseConfig holds the connection settings for the structured-data
// service (Jira tickets, git commits, code files, knowledge docs).
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// HealthConfig controls the health aggregator.
type HealthConfig struct {
	ProbeTimeout time.Duration `yaml:"probeTimeout"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
}

// MissingFieldError reports a required configuration value that was not set.
type MissingFieldError struct {
	Field  string
	EnvVar string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required configuration: %s (set %s)", e.Field, e.EnvVar)
}

// GetDefaults returns the default configuration. Environment variables and
// an optional YAML overlay are applied on top of these values.
func GetDefaults() Config {
	return Config{
		Server: ServerConfig{
			Transport:          TransportStdio,
			Host:               "localhost",
			Port:               3333,
			MaxPortAttempts:    10,
			DefaultToolTimeout: 30 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		Health: HealthConfig{
			ProbeTimeout: 5 * time.Second,
			CacheTTL:     30 * time.Second,
		},
		LogLevel: "info",
	}
}

// FromEnv applies environment variables on top of the receiver.
func (c *Config) FromEnv() {
	c.Server.Transport = envStr("AOMA_TRANSPORT", c.Server.Transport)
	c.Server.Host = envStr("AOMA_HTTP_HOST", c.Server.Host)
	c.Server.Port = envInt("AOMA_HTTP_PORT", c.Server.Port)
	c.Server.MaxPortAttempts = envInt("AOMA_MAX_PORT_ATTEMPTS", c.Server.MaxPortAttempts)
	c.Server.DefaultToolTimeout = envDuration("AOMA_TOOL_TIMEOUT", c.Server.DefaultToolTimeout)

	c.OpenAI.APIKey = envStr("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.Model = envStr("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.BaseURL = envStr("OPENAI_BASE_URL", c.OpenAI.BaseURL)

	c.Database.URL = envStr("DATABASE_URL", c.Database.URL)

	c.Health.ProbeTimeout = envDuration("AOMA_HEALTH_PROBE_TIMEOUT", c.Health.ProbeTimeout)
	c.Health.CacheTTL = envDuration("AOMA_HEALTH_CACHE_TTL", c.Health.CacheTTL)

	c.LogLevel = envStr("AOMA_LOG_LEVEL", c.LogLevel)
}

// Validate checks that every required value is present and consistent.
// It is called once at startup; a failure here aborts the process before
// any transport starts accepting connections.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return &MissingFieldError{Field: "openai.apiKey", EnvVar: "OPENAI_API_KEY"}
	}
	if c.Database.URL == "" {
		return &MissingFieldError{Field: "database.url", EnvVar: "DATABASE_URL"}
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport %q: must be %q or %q",
			c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.Server.Port)
	}
	if c.Server.DefaultToolTimeout <= 0 {
		return fmt.Errorf("default tool timeout must be positive, got %s", c.Server.DefaultToolTimeout)
	}
	if c.Health.ProbeTimeout <= 0 || c.Health.CacheTTL <= 0 {
		return fmt.Errorf("health probe timeout and cache TTL must be positive")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
