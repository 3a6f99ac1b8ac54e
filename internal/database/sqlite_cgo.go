//go:build cgo_sqlite

package database

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// openSQLite opens path with the cgo driver. DSNs without explicit
// options get WAL mode and a busy timeout suited for a single service
// writing alongside readers.
func openSQLite(path string) (*sql.DB, error) {
	if !strings.Contains(path, "?") {
		path += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	return sql.Open("sqlite3", path)
}
