//go:build !cgo_sqlite

package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// openSQLite opens path with the pure Go driver. DSNs without explicit
// options get WAL mode, a busy timeout suited for a single service
// writing alongside readers, and the sqlite time format so timestamps
// round-trip through TIMESTAMP columns.
func openSQLite(path string) (*sql.DB, error) {
	if !strings.Contains(path, "?") {
		path += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}
	return sql.Open("sqlite", path)
}
