// Package config provides 12-factor configuration management for FileView.
//
// Server configuration is loaded from environment variables with sensible
// defaults; CLI flags can override environment variables for development
// flexibility. Chat client configuration additionally reads a YAML file
// (~/.fileview/chat.yaml) before the environment overlay.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - AI: upstream generation (API key, model, timeout); empty key disables
//   - Stream: fallback inter-word delay bounds
//   - Breaker: upstream circuit breaker thresholds
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting for the REST surface
//   - Files: workspace root, ignore globs, content size cap
//   - CORS: allowed origins
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - GEMINI_API_KEY, AI_MODEL, AI_TIMEOUT, AI_MAX_TOKENS
//   - STREAM_DELAY_MIN, STREAM_DELAY_MAX
//   - BREAKER_FAILURES, BREAKER_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - WORKSPACE_ROOT, FILES_IGNORE, FILES_MAX_BYTES
//   - CORS_ORIGINS
//   - FILEVIEW_SERVER_URL, FILEVIEW_RECONNECT_INTERVAL,
//     FILEVIEW_MAX_RECONNECT_ATTEMPTS, FILEVIEW_THEME (chat client)
package config
