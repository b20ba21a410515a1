package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.JobsAPIURL != "https://testapi.getlokalapp.com/common/jobs" {
		t.Fatalf("unexpected jobs API URL: %q", cfg.JobsAPIURL)
	}

	if cfg.FetchTimeout != 20*time.Second {
		t.Fatalf("unexpected fetch timeout: %s", cfg.FetchTimeout)
	}

	if cfg.StorageBackend != "sqlite" || cfg.DBPath != "db.sqlite" {
		t.Fatalf("unexpected storage config: %q %q", cfg.StorageBackend, cfg.DBPath)
	}

	if cfg.BookmarksKey != "bookmarks" || cfg.BookmarkFlushSpec != "*/15 * * * *" {
		t.Fatalf("unexpected bookmark config: %q %q", cfg.BookmarksKey, cfg.BookmarkFlushSpec)
	}

	if len(cfg.AllowedUsers) != 0 {
		t.Fatalf("expected no allowed users, got %v", cfg.AllowedUsers)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without TOKEN")
	}
}

func TestLoadParsesValues(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ALLOWED_USERS", "1,2,3")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("STORAGE_BACKEND", " Redis ")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.AllowedUsers) != 3 || cfg.AllowedUsers[2] != 3 {
		t.Fatalf("unexpected allowed users: %v", cfg.AllowedUsers)
	}

	if cfg.FetchTimeout != 5*time.Second || cfg.StorageBackend != "redis" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadValidatesBackend(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}

	t.Setenv("STORAGE_BACKEND", "etcd")

	if _, err = Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsBadAllowedUsers(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ALLOWED_USERS", "1,abc")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric user id")
	}
}
