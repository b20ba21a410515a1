package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func newTestDatabase(t *testing.T, dbPath string) *Database {
	t.Helper()

	db, err := New(context.Background(), dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	return db
}

func TestDatabaseGetMissingKey(t *testing.T) {
	db := newTestDatabase(t, filepath.Join(t.TempDir(), "db.sqlite"))
	defer db.Close()

	value, found, err := db.Get(context.Background(), "bookmarks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if found || value != nil {
		t.Fatalf("expected missing key, got found=%v value=%q", found, value)
	}
}

func TestDatabaseSetOverwritesAndSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")
	ctx := context.Background()

	db := newTestDatabase(t, dbPath)

	if err := db.Set(ctx, "bookmarks", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := db.Set(ctx, "bookmarks", []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	reopened := newTestDatabase(t, dbPath)
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, "bookmarks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !found || string(value) != `[{"id":2}]` {
		t.Fatalf("unexpected value after reopen: found=%v value=%q", found, value)
	}
}

func TestDatabaseRejectsEmptyKey(t *testing.T) {
	db := newTestDatabase(t, filepath.Join(t.TempDir(), "db.sqlite"))
	defer db.Close()

	if err := db.Set(context.Background(), "  ", []byte("v")); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
