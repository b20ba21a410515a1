package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, found, err := m.Get(ctx, "bookmarks"); found || err != nil {
		t.Fatalf("expected empty store, got found=%v err=%v", found, err)
	}

	value := []byte(`[{"id":1}]`)
	if err := m.Set(ctx, "bookmarks", value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value[2] = 'X'

	got, found, err := m.Get(ctx, "bookmarks")
	if err != nil || !found {
		t.Fatalf("expected stored value, got found=%v err=%v", found, err)
	}

	if string(got) != `[{"id":1}]` {
		t.Fatalf("expected stored copy to be isolated from caller, got %q", got)
	}
}

func TestParseBackend(t *testing.T) {
	cases := map[string]Backend{
		"":         BackendSQLite,
		"SQLite":   BackendSQLite,
		" redis ":  BackendRedis,
		"postgres": BackendPostgres,
		"memory":   BackendMemory,
	}

	for raw, want := range cases {
		got, err := ParseBackend(raw)
		if err != nil {
			t.Fatalf("ParseBackend(%q) unexpected error: %v", raw, err)
		}

		if got != want {
			t.Fatalf("ParseBackend(%q) = %q, want %q", raw, got, want)
		}
	}

	if _, err := ParseBackend("bolt"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestOpenSQLiteAndMemory(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, opts := range []Options{
		{Backend: BackendSQLite, DBPath: filepath.Join(t.TempDir(), "db.sqlite")},
		{Backend: BackendMemory},
	} {
		st, err := Open(ctx, opts, log)
		if err != nil {
			t.Fatalf("Open(%s) unexpected error: %v", opts.Backend, err)
		}

		if err = st.Set(ctx, "k", []byte("v")); err != nil {
			t.Fatalf("Set on %s unexpected error: %v", opts.Backend, err)
		}

		got, found, err := st.Get(ctx, "k")
		if err != nil || !found || string(got) != "v" {
			t.Fatalf("Get on %s = %q, %v, %v", opts.Backend, got, found, err)
		}

		if err = st.Close(); err != nil {
			t.Fatalf("Close on %s unexpected error: %v", opts.Backend, err)
		}
	}
}

func TestOpenRequiresURLs(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := Open(ctx, Options{Backend: BackendRedis}, log); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}

	if _, err := Open(ctx, Options{Backend: BackendPostgres}, log); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestPostgresMigrationsAreEmbedded(t *testing.T) {
	src, err := iofs.New(postgresMigrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to open migrations: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("expected a first migration: %v", err)
	}

	if first != 1 {
		t.Fatalf("expected first version 1, got %d", first)
	}

	up, _, err := src.ReadUp(first)
	if err != nil {
		t.Fatalf("failed to read up migration: %v", err)
	}
	defer up.Close()

	body, err := io.ReadAll(up)
	if err != nil {
		t.Fatalf("failed to read up migration body: %v", err)
	}

	if !strings.Contains(string(body), "bytea") {
		t.Fatalf("expected kv table with bytea values, got %q", body)
	}
}
