// Package testutil provides shared helpers for integration tests against the
// Postgres and SurrealDB backends. Every helper skips the calling test when
// its backend is not configured, so `go test ./...` needs no running database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/pkordes/tripsync/migrations"
)

const (
	// EnvPostgres names the Postgres DSN used by integration tests.
	EnvPostgres = "TEST_DATABASE_URL"
	// EnvSurreal names the SurrealDB endpoint used by integration tests.
	EnvSurreal = "TEST_SURREALDB_URL"
)

// NewPool opens a pool on TEST_DATABASE_URL, closed when the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := requireEnv(t, EnvPostgres)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction that is rolled back when the test finishes.
// Gateways built on it leave nothing behind.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := NewPool(t)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a database/sql handle on TEST_DATABASE_URL for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openSQLDB(requireEnv(t, EnvPostgres))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MigrateUp applies every embedded migration to dsn. It is meant for
// TestMain, where there is no *testing.T; it panics on failure.
func MigrateUp(dsn string) {
	db, err := openSQLDB(dsn)
	if err != nil {
		panic("testutil.MigrateUp: " + err.Error())
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		panic("testutil.MigrateUp: create goose provider: " + err.Error())
	}
	if _, err := provider.Up(context.Background()); err != nil {
		panic("testutil.MigrateUp: run migrations: " + err.Error())
	}
}

// NewSurrealDB connects to TEST_SURREALDB_URL and selects a per-test
// database, removed again when the test finishes.
func NewSurrealDB(t *testing.T) *surrealdb.DB {
	t.Helper()
	url := requireEnv(t, EnvSurreal)
	ctx := context.Background()

	db, err := surrealdb.FromEndpointURLString(ctx, url)
	if err != nil {
		t.Fatalf("testutil.NewSurrealDB: connect: %v", err)
	}
	if _, err := db.SignIn(ctx, map[string]any{"user": "root", "pass": "root"}); err != nil {
		_ = db.Close(ctx)
		t.Fatalf("testutil.NewSurrealDB: sign in: %v", err)
	}

	database := "test_" + sanitize(t.Name())
	if err := db.Use(ctx, "tripsync_test", database); err != nil {
		_ = db.Close(ctx)
		t.Fatalf("testutil.NewSurrealDB: use: %v", err)
	}

	t.Cleanup(func() {
		_, _ = surrealdb.Query[any](ctx, db, "REMOVE DATABASE IF EXISTS "+database+";", map[string]any{})
		_ = db.Close(ctx)
	})
	return db
}

func openSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func requireEnv(t *testing.T, name string) string {
	t.Helper()
	v := os.Getenv(name)
	if v == "" {
		t.Skipf("%s not set; skipping integration test", name)
	}
	return v
}

func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
