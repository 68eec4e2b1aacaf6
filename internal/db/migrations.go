package db

import (
	"database/sql"
	"fmt"
)

// GetSchemaVersion returns the current schema version from the database
func (db *DB) GetSchemaVersion() (int, error) {
	var version string
	err := db.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		// Table might not exist yet
		return 0, nil
	}
	var v int
	fmt.Sscanf(version, "%d", &v)
	return v, nil
}

func (db *DB) setSchemaVersion(version int) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", version))
	return err
}

// columnExists checks whether a column exists on a table
func (db *DB) columnExists(table, column string) (bool, error) {
	rows, err := db.conn.Query(fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}

	return false, rows.Err()
}

// RunMigrations brings an existing database up to the current schema version.
func (db *DB) RunMigrations() error {
	version, err := db.GetSchemaVersion()
	if err != nil {
		return err
	}
	if version >= SchemaVersion {
		return nil
	}

	return db.withWriteLock(func() error {
		// Version 0 databases predate schema_info; the base schema is
		// idempotent, so re-running it fills any missing tables.
		if version < 1 {
			if _, err := db.conn.Exec(schema); err != nil {
				return fmt.Errorf("apply base schema: %w", err)
			}
		}

		// v2: error_message on sync_queue (added after the first release)
		if version < 2 {
			exists, err := db.columnExists("sync_queue", "error_message")
			if err != nil {
				return err
			}
			if !exists {
				if _, err := db.conn.Exec(`ALTER TABLE sync_queue ADD COLUMN error_message TEXT`); err != nil {
					return fmt.Errorf("add error_message column: %w", err)
				}
			}
		}

		return db.setSchemaVersion(SchemaVersion)
	})
}

// resetDanglingInProgress returns tasks stuck at in-progress to pending.
// Runs on open: a crashed cycle marked them but never settled them.
func (db *DB) resetDanglingInProgress() error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE tasks SET sync_status = 'pending' WHERE sync_status = 'in-progress'`)
		return err
	})
}
