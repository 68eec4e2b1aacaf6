// Package serverdb is the storage layer for the reference sync server. It
// keeps the authoritative copy of every task row, keyed by the client id so
// batch replays stay idempotent.
package serverdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const serverSchema = `
CREATE TABLE IF NOT EXISTS server_tasks (
    client_id TEXT PRIMARY KEY,
    server_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT DEFAULT '',
    completed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    received_at TEXT NOT NULL
);
`

// ServerDB wraps the server-side database connection.
type ServerDB struct {
	conn *sql.DB
}

// Open opens (or creates) the server database at the given path.
func Open(path string) (*ServerDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open server db: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=1000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := conn.Exec(serverSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &ServerDB{conn: conn}, nil
}

// Close closes the database.
func (s *ServerDB) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying connection, for tests.
func (s *ServerDB) Conn() *sql.DB {
	return s.conn
}
