// Package dbtest connects integration tests to a disposable PostgreSQL database.
// Tests are skipped unless TEST_DATABASE_URL is set. Every test package works in
// its own schema so packages can run in parallel.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/freshcart/internal/config"
	"github.com/vasiliy-maslov/freshcart/internal/db"
)

const EnvDatabaseURL = "TEST_DATABASE_URL"

var (
	migrateOnce sync.Once
	migrateErr  error
)

// MigrationsPath resolves the repository migrations directory from this file's location.
func MigrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations")
}

// Open returns a migrated, empty database scoped to schema, or skips the test.
func Open(tb testing.TB, schema string) *db.Postgres {
	tb.Helper()

	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		tb.Skipf("%s not set, skipping integration test", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := db.New(ctx, config.PostgresConfig{
		URL:             url,
		Schema:          schema,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	})
	require.NoError(tb, err, "failed to connect to test database")

	migrateOnce.Do(func() {
		_, migrateErr = pg.Pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize())
		if migrateErr == nil {
			migrateErr = pg.Migrate(MigrationsPath())
		}
	})
	require.NoError(tb, migrateErr, "failed to migrate test database")

	Truncate(tb, pg)
	tb.Cleanup(func() {
		Truncate(tb, pg)
		pg.Close()
	})

	return pg
}

// Truncate empties every application table.
func Truncate(tb testing.TB, pg *db.Postgres) {
	tb.Helper()
	_, err := pg.Pool.Exec(context.Background(),
		"TRUNCATE TABLE carts, order_items, orders, products, users RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate tables")
}
