package config

import (
	"os"
	"path/filepath"
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

	// AI config
	assert.Empty(t, cfg.AI.APIKey)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 120*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)

	// Stream config
	assert.Equal(t, 20*time.Millisecond, cfg.Stream.DelayMin)
	assert.Equal(t, 100*time.Millisecond, cfg.Stream.DelayMax)

	// Breaker config
	assert.Equal(t, uint32(3), cfg.Breaker.Failures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Files config
	assert.Equal(t, ".", cfg.Files.Root)
	assert.Equal(t, []string{"**/.git/**", "**/node_modules/**"}, cfg.Files.Ignore)
	assert.Equal(t, int64(1<<20), cfg.Files.MaxBytes)

	// CORS config
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	// Setup environment variables
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"GEMINI_API_KEY":     "test-key",
		"AI_MODEL":           "gemini-2.5-pro",
		"AI_TIMEOUT":         "30s",
		"STREAM_DELAY_MIN":   "0s",
		"STREAM_DELAY_MAX":   "0s",
		"BREAKER_FAILURES":   "5",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
		"WORKSPACE_ROOT":     "/srv/workspace",
		"FILES_IGNORE":       "**/.git/**,**/dist/**",
	}

	// Set environment variables
	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Verify AI config
	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)

	// Verify stream config
	assert.Equal(t, time.Duration(0), cfg.Stream.DelayMin)
	assert.Equal(t, time.Duration(0), cfg.Stream.DelayMax)

	// Verify breaker config
	assert.Equal(t, uint32(5), cfg.Breaker.Failures)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify rate limit config
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)

	// Verify files config
	assert.Equal(t, "/srv/workspace", cfg.Files.Root)
	assert.Equal(t, []string{"**/.git/**", "**/dist/**"}, cfg.Files.Ignore)
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
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestDefaultClient(t *testing.T) {
	cfg := DefaultClient()

	assert.Equal(t, "ws://localhost:8000/stream", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.ReconnectInterval)
	assert.Equal(t, 5, cfg.MaxReconnectAttempts)
	assert.Equal(t, "dark", cfg.Theme)
}

func TestLoadClientMissingFile(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	// Defaults survive a missing file
	assert.Equal(t, "ws://localhost:8000/stream", cfg.ServerURL)
	assert.Equal(t, 5, cfg.MaxReconnectAttempts)
}

func TestLoadClientFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	data := []byte("server_url: ws://example.com:9000/stream\nreconnect_interval: 1s\nmax_reconnect_attempts: 2\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadClient(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://example.com:9000/stream", cfg.ServerURL)
	assert.Equal(t, time.Second, cfg.ReconnectInterval)
	assert.Equal(t, 2, cfg.MaxReconnectAttempts)
	// Untouched fields keep defaults
	assert.Equal(t, "dark", cfg.Theme)
}

func TestLoadClientEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	data := []byte("server_url: ws://example.com:9000/stream\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, os.Setenv("FILEVIEW_SERVER_URL", "ws://override:7000/stream"))
	defer os.Unsetenv("FILEVIEW_SERVER_URL")

	cfg, err := LoadClient(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://override:7000/stream", cfg.ServerURL)
}

func TestLoadClientInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unterminated"), 0o644))

	_, err := LoadClient(path)
	require.Error(t, err)
}
