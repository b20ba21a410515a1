package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var errEmptyKey = errors.New("key is empty")

// Get returns the value stored under key. found is false when the key has
// never been written.
func (d *Database) Get(ctx context.Context, key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errEmptyKey
	}

	query := "select value from kv where key = ?"

	var value []byte
	err := d.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("execute query: %w", err)
	}

	return value, true, nil
}

func (d *Database) Set(ctx context.Context, key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errEmptyKey
	}

	if value == nil {
		value = []byte{}
	}

	query := `insert into kv (key, value, updated_at)
	values (?, ?, current_timestamp)
	on conflict (key) do update
	set value = excluded.value,
	updated_at = excluded.updated_at`

	if _, err := d.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}
