package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`

	JobsAPIURL   string        `env:"JOBS_API_URL"  envDefault:"https://testapi.getlokalapp.com/common/jobs"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"20s"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	DBPath         string `env:"DB_PATH"         envDefault:"db.sqlite"`
	RedisURL       string `env:"REDIS_URL"`
	DatabaseURL    string `env:"DATABASE_URL"`

	BookmarksKey      string `env:"BOOKMARKS_KEY"       envDefault:"bookmarks"`
	BookmarkFlushSpec string `env:"BOOKMARK_FLUSH_SPEC" envDefault:"*/15 * * * *"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}

	switch c.StorageBackend {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite storage"))
		}
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			errs = append(errs, errors.New("REDIS_URL is required for redis storage"))
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND %q is not one of sqlite, redis, postgres, memory", c.StorageBackend))
	}

	return errors.Join(errs...)
}
