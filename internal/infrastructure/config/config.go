package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Executor  ExecutorConfig
	Content   ContentConfig
	UI        UIConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins is a comma-separated allow list; "*" allows any origin.
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ExecutorConfig holds remote execution service configuration.
type ExecutorConfig struct {
	URL       string        `envconfig:"EXECUTOR_URL" default:"http://localhost:5000/api/run"`
	Timeout   time.Duration `envconfig:"EXECUTOR_TIMEOUT" default:"60s"`
	RateLimit float64       `envconfig:"EXECUTOR_RATE_LIMIT" default:"0"`
}

// ContentConfig holds practical and tutor catalog configuration.
// An empty Dir selects the catalog embedded in the binary.
type ContentConfig struct {
	Dir string `envconfig:"CONTENT_DIR" default:""`
}

// UIConfig holds presentation defaults for new sessions.
type UIConfig struct {
	SidebarOpen bool `envconfig:"SIDEBAR_OPEN" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Executor: ExecutorConfig{
			URL:     "http://localhost:5000/api/run",
			Timeout: 60 * time.Second,
		},
		UI: UIConfig{
			SidebarOpen: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
