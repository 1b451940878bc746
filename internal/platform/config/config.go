package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	NodeID      string `env:"NODE_ID"`
	Assets      string `env:"ASSETS"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	WindowSize   time.Duration `env:"WINDOW_SIZE" default:"5m"`
	EpochLength  time.Duration `env:"EPOCH_LENGTH" default:"5m"`
	EpochGrace   time.Duration `env:"EPOCH_GRACE" default:"30s"`
	PollInterval time.Duration `env:"POLL_INTERVAL" default:"5m"`

	ClassifyWorkers         int           `env:"CLASSIFY_WORKERS" default:"4"`
	SnapshotCacheTTL        time.Duration `env:"SNAPSHOT_CACHE_TTL" default:"15m"`
	SubmissionRatePerSecond float64       `env:"SUBMISSION_RATE_PER_SECOND" default:"10"`
	SubmissionBurst         int           `env:"SUBMISSION_BURST" default:"20"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AssetList splits the comma-separated ASSETS value into lowercased
// symbols.
func (c *Config) AssetList() []string {
	parts := strings.Split(c.Assets, ",")
	assets := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			assets = append(assets, p)
		}
	}
	return assets
}

func validate(cfg *Config) error {
	required := map[string]string{
		"NODE_ID": cfg.NodeID,
		"ASSETS":  cfg.Assets,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.AssetList()) == 0 {
		return errors.New("ASSETS must name at least one symbol")
	}

	if cfg.WindowSize < time.Minute {
		return errors.New("WINDOW_SIZE must be at least 1m")
	}
	if cfg.EpochLength < cfg.WindowSize {
		return errors.New("EPOCH_LENGTH must be at least WINDOW_SIZE")
	}
	if cfg.EpochGrace < 0 {
		return errors.New("EPOCH_GRACE must not be negative")
	}
	if cfg.ClassifyWorkers < 1 {
		return errors.New("CLASSIFY_WORKERS must be at least 1")
	}

	if cfg.AppEnv == "production" && cfg.DatabaseURL != "" {
		lower := strings.ToLower(cfg.DatabaseURL)
		for _, mode := range []string{"sslmode=disable", "sslmode=allow"} {
			if strings.Contains(lower, mode) {
				return fmt.Errorf("DATABASE_URL uses %s which is not allowed in production", mode)
			}
		}
	}

	return nil
}
