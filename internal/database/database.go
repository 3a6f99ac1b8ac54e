// Package database handles relational storage for template sources. It
// connects to PostgreSQL (via pgx) or SQLite (driver picked at build
// time) and runs goose migrations embedded in the binary. The schema and
// every query in the repo stay inside the dialect both engines share, so
// one store serves either backend.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations
var embedMigrations embed.FS

// Connect opens a PostgreSQL connection pool using the provided DSN.
// The initial ping retries with fibonacci backoff so the service survives
// a database that is still starting up next to it.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected")
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database at path. The driver is
// selected at build time: default builds use the pure Go modernc driver,
// builds tagged cgo_sqlite use mattn/go-sqlite3. In-memory databases are
// pinned to a single connection so every query sees the same schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	slog.Info("sqlite connected", "path", path)
	return db, nil
}

// Migrate runs all pending goose migrations from the embedded SQL files.
// dialect is "postgres" or "sqlite3", matching the driver the *sql.DB was
// opened with. Migrations are embedded at compile time so no external
// files are needed at runtime.
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("database migrations applied", "dialect", dialect)
	return nil
}
