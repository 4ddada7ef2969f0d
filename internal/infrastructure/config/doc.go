// Package config provides 12-factor configuration management for the labmat backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins, shutdown timeout)
//   - Executor: remote execution service URL, timeout and client-side rate limit
//   - Content: optional directory of practical/tutor catalog files
//   - UI: presentation defaults for new sessions (sidebar open on start)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS, SHUTDOWN_TIMEOUT
//   - EXECUTOR_URL, EXECUTOR_TIMEOUT, EXECUTOR_RATE_LIMIT
//   - CONTENT_DIR, SIDEBAR_OPEN
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
