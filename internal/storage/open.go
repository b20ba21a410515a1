package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jobsportal/internal/database"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Store is a durable key-value store holding opaque serialized values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

type Options struct {
	Backend     Backend
	DBPath      string
	RedisURL    string
	DatabaseURL string
}

func ParseBackend(raw string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(raw))); b {
	case BackendSQLite, BackendRedis, BackendPostgres, BackendMemory:
		return b, nil
	case "":
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q", raw)
	}
}

func Open(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		db, err := database.New(ctx, opts.DBPath, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite (path = %s): %w", opts.DBPath, err)
		}

		return db, nil
	case BackendRedis:
		if strings.TrimSpace(opts.RedisURL) == "" {
			return nil, fmt.Errorf("REDIS_URL is required for %s backend", opts.Backend)
		}

		return NewRedis(ctx, opts.RedisURL)
	case BackendPostgres:
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for %s backend", opts.Backend)
		}

		return NewPostgres(ctx, opts.DatabaseURL, log)
	case BackendMemory:
		log.WarnContext(ctx, "Memory storage is used so bookmarks will not survive restarts",
			"backend", opts.Backend)

		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
