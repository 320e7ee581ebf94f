package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// ClientConfig holds chat client configuration. Values resolve in order:
// built-in defaults, then the YAML config file, then FILEVIEW_* environment
// variables. The struct carries no envconfig defaults so the overlay only
// touches fields whose variable is actually set.
type ClientConfig struct {
	ServerURL            string        `yaml:"server_url" envconfig:"SERVER_URL"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval" envconfig:"RECONNECT_INTERVAL"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" envconfig:"MAX_RECONNECT_ATTEMPTS"`
	Theme                string        `yaml:"theme" envconfig:"THEME"`
}

// DefaultClient returns default chat client configuration.
func DefaultClient() *ClientConfig {
	return &ClientConfig{
		ServerURL:            "ws://localhost:8000/stream",
		ReconnectInterval:    3 * time.Second,
		MaxReconnectAttempts: 5,
		Theme:                "dark",
	}
}

// DefaultClientPath returns the conventional config file location.
func DefaultClientPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fileview", "chat.yaml")
}

// LoadClient resolves chat client configuration. A missing file is not an
// error; a present but unreadable or invalid file is.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClient()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overlay
		case err != nil:
			return nil, fmt.Errorf("read client config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse client config %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process("FILEVIEW", cfg); err != nil {
		return nil, fmt.Errorf("load client config from env: %w", err)
	}
	return cfg, nil
}
