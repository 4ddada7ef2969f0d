package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	// Executor config
	assert.Equal(t, "http://localhost:5000/api/run", cfg.Executor.URL)
	assert.Equal(t, 60*time.Second, cfg.Executor.Timeout)
	assert.Zero(t, cfg.Executor.RateLimit)

	// Content and UI config
	assert.Empty(t, cfg.Content.Dir)
	assert.True(t, cfg.UI.SidebarOpen)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                "9000",
		"HOST":                "127.0.0.1",
		"CORS_ORIGINS":        "http://a.test,http://b.test",
		"EXECUTOR_URL":        "http://runner:5000/api/run",
		"EXECUTOR_TIMEOUT":    "15s",
		"EXECUTOR_RATE_LIMIT": "2.5",
		"CONTENT_DIR":         "/srv/content",
		"SIDEBAR_OPEN":        "false",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"RATE_LIMIT_RPS":      "500",
		"RATE_LIMIT_BURST":    "1000",
		"RATE_LIMIT_ENABLED":  "false",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "http://runner:5000/api/run", cfg.Executor.URL)
	assert.Equal(t, 15*time.Second, cfg.Executor.Timeout)
	assert.InDelta(t, 2.5, cfg.Executor.RateLimit, 0.0001)

	assert.Equal(t, "/srv/content", cfg.Content.Dir)
	assert.False(t, cfg.UI.SidebarOpen)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	// Only set some environment variables
	err := os.Setenv("PORT", "3000")
	require.NoError(t, err)
	defer os.Unsetenv("PORT")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "http://localhost:5000/api/run", cfg.Executor.URL)
	assert.True(t, cfg.UI.SidebarOpen)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timeout", key: "EXECUTOR_TIMEOUT", value: "soon"},
		{name: "rate limit", key: "EXECUTOR_RATE_LIMIT", value: "fast"},
		{name: "sidebar flag", key: "SIDEBAR_OPEN", value: "maybe"},
		{name: "rps", key: "RATE_LIMIT_RPS", value: "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			// LoadOrDefault falls back instead of failing
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}

func TestExecutorConfig(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		timeout     string
		wantURL     string
		wantTimeout time.Duration
	}{
		{
			name:        "default values",
			wantURL:     "http://localhost:5000/api/run",
			wantTimeout: 60 * time.Second,
		},
		{
			name:        "custom url",
			url:         "https://labmat.example/api/run",
			wantURL:     "https://labmat.example/api/run",
			wantTimeout: 60 * time.Second,
		},
		{
			name:        "custom timeout",
			timeout:     "2m",
			wantURL:     "http://localhost:5000/api/run",
			wantTimeout: 2 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.url != "" {
				t.Setenv("EXECUTOR_URL", tt.url)
			}
			if tt.timeout != "" {
				t.Setenv("EXECUTOR_TIMEOUT", tt.timeout)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantURL, cfg.Executor.URL)
			assert.Equal(t, tt.wantTimeout, cfg.Executor.Timeout)
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		dev       string
		wantLevel string
		wantDev   bool
	}{
		{
			name:      "default values",
			wantLevel: "info",
			wantDev:   false,
		},
		{
			name:      "debug level",
			level:     "debug",
			wantLevel: "debug",
			wantDev:   false,
		},
		{
			name:      "development mode",
			dev:       "true",
			wantLevel: "info",
			wantDev:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.level != "" {
				t.Setenv("LOG_LEVEL", tt.level)
			}
			if tt.dev != "" {
				t.Setenv("LOG_DEV", tt.dev)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
			assert.Equal(t, tt.wantDev, cfg.Logging.Development)
		})
	}
}
