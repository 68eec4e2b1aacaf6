package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestSchemaVersionAfterInitialize(t *testing.T) {
	db := setupDB(t)

	version, err := db.GetSchemaVersion()
	if err != nil {
		t.Fatalf("GetSchemaVersion failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version: got %d, want %d", version, SchemaVersion)
	}
}

func TestMigrateV1Database(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Rebuild a v1 store: drop the v2 column and wind the version back.
	stmts := []string{
		`ALTER TABLE sync_queue DROP COLUMN error_message`,
		`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', '1')`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			t.Fatalf("downgrade: %v", err)
		}
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	version, err := db.GetSchemaVersion()
	if err != nil {
		t.Fatalf("GetSchemaVersion failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version after migrate: got %d, want %d", version, SchemaVersion)
	}
	exists, err := db.columnExists("sync_queue", "error_message")
	if err != nil {
		t.Fatalf("columnExists failed: %v", err)
	}
	if !exists {
		t.Error("error_message column missing after migrate")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := setupDB(t)

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("third RunMigrations failed: %v", err)
	}
}

// The store must stay plain SQLite: other drivers (and other tools) read the
// same file.
func TestDatabasePortableAcrossDrivers(t *testing.T) {
	dir := t.TempDir()
	db, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	db.Close()

	raw, err := sql.Open("sqlite3", filepath.Join(dir, ".taskpad", "tasks.db"))
	if err != nil {
		t.Fatalf("open with sqlite3 driver: %v", err)
	}
	defer raw.Close()

	var version string
	if err := raw.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version == "" {
		t.Error("empty schema version")
	}

	for _, table := range []string{"tasks", "sync_queue", "dead_letter_queue"} {
		var count int
		if err := raw.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
			t.Errorf("table %s not readable: %v", table, err)
		}
	}
}
