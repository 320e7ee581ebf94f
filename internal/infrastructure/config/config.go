package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Stream    StreamConfig
	Breaker   BreakerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Files     FilesConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// AIConfig holds upstream generation configuration. An empty APIKey disables
// the upstream entirely; the decision is made once at startup and handed to
// the session handler, never re-read from the environment.
type AIConfig struct {
	APIKey    string        `envconfig:"GEMINI_API_KEY"`
	Model     string        `envconfig:"AI_MODEL" default:"gemini-2.0-flash"`
	Timeout   time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	MaxTokens int           `envconfig:"AI_MAX_TOKENS" default:"1024"`
}

// Enabled reports whether an upstream client should be constructed.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// StreamConfig bounds the randomized inter-word delay of the fallback stream.
type StreamConfig struct {
	DelayMin time.Duration `envconfig:"STREAM_DELAY_MIN" default:"20ms"`
	DelayMax time.Duration `envconfig:"STREAM_DELAY_MAX" default:"100ms"`
}

// BreakerConfig holds circuit breaker configuration for upstream calls.
type BreakerConfig struct {
	Failures uint32        `envconfig:"BREAKER_FAILURES" default:"3"`
	Timeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for the REST surface.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// FilesConfig holds workspace viewer configuration.
type FilesConfig struct {
	Root     string   `envconfig:"WORKSPACE_ROOT" default:"."`
	Ignore   []string `envconfig:"FILES_IGNORE" default:"**/.git/**,**/node_modules/**"`
	MaxBytes int64    `envconfig:"FILES_MAX_BYTES" default:"1048576"`
}

// CORSConfig holds allowed origins for browser clients.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
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
			Port: "8000",
			Host: "0.0.0.0",
		},
		AI: AIConfig{
			Model:     "gemini-2.0-flash",
			Timeout:   120 * time.Second,
			MaxTokens: 1024,
		},
		Stream: StreamConfig{
			DelayMin: 20 * time.Millisecond,
			DelayMax: 100 * time.Millisecond,
		},
		Breaker: BreakerConfig{
			Failures: 3,
			Timeout:  30 * time.Second,
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
		Files: FilesConfig{
			Root:     ".",
			Ignore:   []string{"**/.git/**", "**/node_modules/**"},
			MaxBytes: 1 << 20,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}
