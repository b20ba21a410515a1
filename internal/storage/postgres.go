package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var postgresMigrationsFS embed.FS

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a pool, verifies it and applies the kv migrations.
func NewPostgres(ctx context.Context, databaseURL string, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = migratePostgres(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool}, nil
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	// Closing this handle leaves the pool open.
	db := stdlib.OpenDBFromPool(pool)

	dbInstance, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return errors.Join(fmt.Errorf("create DB instance: %w", err), db.Close())
	}

	srcInstance, err := iofs.New(postgresMigrationsFS, "migrations")
	if err != nil {
		return errors.Join(fmt.Errorf("create source instance: %w", err), dbInstance.Close())
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "pgx5", dbInstance)
	if err != nil {
		return errors.Join(fmt.Errorf("create migrate instance: %w", err), dbInstance.Close())
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.WarnContext(ctx, "Failed to close migrate instance",
				"error", errors.Join(srcErr, dbErr))
		}
	}()

	migrateErr := m.Up()

	version, dirty, versionErr := m.Version()
	fields := []any{
		"backend", BackendPostgres,
	}

	if versionErr == nil {
		fields = append(fields, "version", version, "dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		log.WarnContext(ctx, "Failed to fetch migration version",
			"error", versionErr,
			"backend", BackendPostgres)
	}

	if migrateErr != nil {
		if !errors.Is(migrateErr, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", migrateErr)
		}

		log.InfoContext(ctx, "No migrations to apply", fields...)
	} else {
		log.InfoContext(ctx, "DB is migrated", fields...)
	}

	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select kv: %w", err)
	}

	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO kv (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}

	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
