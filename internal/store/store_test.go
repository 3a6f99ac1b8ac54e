// store_test.go provides a shared test database helper for the store
// tests. By default they run against in-memory SQLite, which needs no
// external services; set PRESSROOM_TEST_POSTGRES=1 to run the same tests
// against the PostgreSQL instance from docker-compose.yml instead.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/pressly/goose/v3"

	"pressroom/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "pressroom")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "pressroom")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens the test database with migrations applied and registers a
// cleanup to close it when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	var (
		db      *sql.DB
		dialect string
		err     error
	)
	if os.Getenv("PRESSROOM_TEST_POSTGRES") != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db, err = database.Connect(ctx, testDSN())
		if err != nil {
			t.Skipf("skipping integration test: DB not reachable: %v", err)
		}
		dialect = "postgres"
	} else {
		db, err = database.OpenSQLite(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		dialect = "sqlite3"
	}

	if err := database.Migrate(db, dialect); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Release goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanTemplates removes test templates and their revisions by key. Call
// in t.Cleanup() so PostgreSQL runs leave no rows behind.
func cleanTemplates(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		db.Exec("DELETE FROM page_template_revisions WHERE key = $1", key)
		db.Exec("DELETE FROM page_templates WHERE key = $1", key)
	}
}
