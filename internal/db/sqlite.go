package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the sqlite database at dsn and applies the given schema
// statements.
func OpenSQLite(dsn string, schema ...string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	// Single connection: concurrent dispatcher writers queue here.
	conn.SetMaxOpenConns(1)
	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"}
	for _, stmt := range append(pragmas, schema...) {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return conn, nil
}
