package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the client configuration. All values come from the environment
// (prefix COURTBOOK_), with an optional .env file loaded first.
type Config struct {
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:8000/api/"`

	// SecretKey seals the session file at rest. Base64, generate one with
	// `courtbook keys`.
	SecretKey string `envconfig:"SECRET_KEY" required:"true"`

	SessionPath string `envconfig:"SESSION_PATH"`

	HTTPTimeoutSeconds   int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"10"`
	WatchIntervalSeconds int `envconfig:"WATCH_INTERVAL_SECONDS" default:"30"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("courtbook", &cfg); err != nil {
		return Config{}, err
	}

	if cfg.HTTPTimeoutSeconds < 1 {
		return Config{}, fmt.Errorf("COURTBOOK_HTTP_TIMEOUT_SECONDS must be >= 1")
	}
	if cfg.WatchIntervalSeconds < 1 {
		return Config{}, fmt.Errorf("COURTBOOK_WATCH_INTERVAL_SECONDS must be >= 1")
	}
	if _, err := base64.StdEncoding.DecodeString(cfg.SecretKey); err != nil {
		return Config{}, fmt.Errorf("COURTBOOK_SECRET_KEY: not valid base64: %w", err)
	}

	if cfg.SessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home for session path: %w", err)
		}
		cfg.SessionPath = filepath.Join(home, ".courtbook", "session")
	}

	return cfg, nil
}

// Secret returns the decoded session sealing secret.
func (c Config) Secret() []byte {
	b, _ := base64.StdEncoding.DecodeString(c.SecretKey)
	return b
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchIntervalSeconds) * time.Second
}
