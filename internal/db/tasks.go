package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/taskpad/internal/models"
)

// marshalTask returns a JSON snapshot of a task for sync_queue storage.
func marshalTask(task *models.Task) string {
	data, _ := json.Marshal(task)
	return string(data)
}

const taskColumns = `id, title, description, completed, created_at, updated_at, is_deleted, sync_status, server_id, last_synced_at`

// scanTask reads one task row. The projection is total: 0/1 integers become
// booleans, text timestamps are parsed, NULL server fields map to zero values.
func scanTask(row interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var completed, isDeleted int
	var createdAt, updatedAt string
	var serverID, lastSyncedAt sql.NullString

	err := row.Scan(&task.ID, &task.Title, &task.Description, &completed,
		&createdAt, &updatedAt, &isDeleted, &task.SyncStatus, &serverID, &lastSyncedAt)
	if err != nil {
		return nil, err
	}

	task.Completed = completed != 0
	task.IsDeleted = isDeleted != 0
	task.ServerID = serverID.String

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("task %s created_at: %w", task.ID, err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("task %s updated_at: %w", task.ID, err)
	}
	if lastSyncedAt.Valid {
		t, err := parseTime(lastSyncedAt.String)
		if err != nil {
			return nil, fmt.Errorf("task %s last_synced_at: %w", task.ID, err)
		}
		task.LastSyncedAt = &t
	}

	return &task, nil
}

// getTaskTx fetches a task row by id inside a transaction, deleted or not.
func getTaskTx(tx *sql.Tx, id string) (*models.Task, error) {
	row := tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return task, err
}

// CreateTask creates a task and enqueues its create intent atomically.
// The task gets a fresh id, pending sync status, and now() timestamps.
func (db *DB) CreateTask(task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("title is required")
	}

	return db.withTx(func(tx *sql.Tx) error {
		now := time.Now().UTC()
		task.CreatedAt = now
		task.UpdatedAt = now
		task.IsDeleted = false
		task.SyncStatus = models.SyncPending
		task.ServerID = ""
		task.LastSyncedAt = nil

		const maxAttempts = 3
		for attempt := range maxAttempts {
			id, err := generateID()
			if err != nil {
				return err
			}
			task.ID = id

			_, err = tx.Exec(`
				INSERT INTO tasks (id, title, description, completed, created_at, updated_at, is_deleted, sync_status)
				VALUES (?, ?, ?, ?, ?, ?, 0, ?)
			`, task.ID, task.Title, task.Description, boolToInt(task.Completed),
				formatTime(task.CreatedAt), formatTime(task.UpdatedAt), task.SyncStatus)

			if err == nil {
				break
			}
			if !strings.Contains(err.Error(), "UNIQUE constraint") {
				return err
			}
			if attempt == maxAttempts-1 {
				return fmt.Errorf("failed to generate unique task ID after %d attempts", maxAttempts)
			}
		}

		return enqueueIntent(tx, task.ID, models.OpCreate, marshalTask(task), now)
	})
}

// UpdateTask overwrites the mutable fields of a task and enqueues an update
// intent atomically. Returns nil if the task is missing or soft-deleted.
func (db *DB) UpdateTask(id string, patch models.TaskPatch) (*models.Task, error) {
	var updated *models.Task
	err := db.withTx(func(tx *sql.Tx) error {
		task, err := getTaskTx(tx, id)
		if err != nil {
			return err
		}
		if task == nil || task.IsDeleted {
			return nil
		}

		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				return fmt.Errorf("title cannot be empty")
			}
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Completed != nil {
			task.Completed = *patch.Completed
		}

		now := time.Now().UTC()
		task.UpdatedAt = now
		task.SyncStatus = models.SyncPending

		_, err = tx.Exec(`
			UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?, sync_status = ?
			WHERE id = ?
		`, task.Title, task.Description, boolToInt(task.Completed), formatTime(now), task.SyncStatus, task.ID)
		if err != nil {
			return err
		}

		if err := enqueueIntent(tx, task.ID, models.OpUpdate, marshalTask(task), now); err != nil {
			return err
		}
		updated = task
		return nil
	})
	return updated, err
}

// DeleteTask soft-deletes a task and enqueues a delete intent carrying the
// final snapshot. Returns false if the task is missing or already deleted.
func (db *DB) DeleteTask(id string) (bool, error) {
	deleted := false
	err := db.withTx(func(tx *sql.Tx) error {
		task, err := getTaskTx(tx, id)
		if err != nil {
			return err
		}
		if task == nil || task.IsDeleted {
			return nil
		}

		now := time.Now().UTC()
		task.IsDeleted = true
		task.UpdatedAt = now
		task.SyncStatus = models.SyncPending

		_, err = tx.Exec(`
			UPDATE tasks SET is_deleted = 1, updated_at = ?, sync_status = ? WHERE id = ?
		`, formatTime(now), task.SyncStatus, task.ID)
		if err != nil {
			return err
		}

		if err := enqueueIntent(tx, task.ID, models.OpDelete, marshalTask(task), now); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// GetTask returns a task by id, or nil if it is missing or soft-deleted.
func (db *DB) GetTask(id string) (*models.Task, error) {
	row := db.conn.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND is_deleted = 0`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return task, err
}

// ListTasks returns all live tasks, newest first.
func (db *DB) ListTasks() ([]models.Task, error) {
	return db.queryTasks(`SELECT ` + taskColumns + ` FROM tasks WHERE is_deleted = 0 ORDER BY created_at DESC`)
}

// ListNeedingSync returns live tasks with sync status pending or error,
// ordered by updated_at ascending.
func (db *DB) ListNeedingSync() ([]models.Task, error) {
	return db.queryTasks(`
		SELECT ` + taskColumns + ` FROM tasks
		WHERE is_deleted = 0 AND sync_status IN ('pending', 'error')
		ORDER BY updated_at ASC`)
}

func (db *DB) queryTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// MarkTasksInProgress flags every task in ids as in-progress before a batch
// transmit. Advisory only; Open resets stragglers after a crash.
func (db *DB) MarkTasksInProgress(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.withTx(func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec(`UPDATE tasks SET sync_status = ? WHERE id = ?`, models.SyncInProgress, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkTaskSynced records a successful acknowledgement: synced status, sync
// time, the server id when first assigned, and clears the task's queue items.
func (db *DB) MarkTaskSynced(taskID, serverID string, syncedAt time.Time) error {
	return db.withTx(func(tx *sql.Tx) error {
		if serverID != "" {
			_, err := tx.Exec(`UPDATE tasks SET sync_status = ?, last_synced_at = ?, server_id = ? WHERE id = ?`,
				models.SyncSynced, formatTime(syncedAt), serverID, taskID)
			if err != nil {
				return err
			}
		} else {
			_, err := tx.Exec(`UPDATE tasks SET sync_status = ?, last_synced_at = ? WHERE id = ?`,
				models.SyncSynced, formatTime(syncedAt), taskID)
			if err != nil {
				return err
			}
		}
		_, err := tx.Exec(`DELETE FROM sync_queue WHERE task_id = ?`, taskID)
		return err
	})
}

// SetTaskSyncStatus updates only the sync status of a task.
func (db *DB) SetTaskSyncStatus(taskID string, status models.SyncStatus) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE tasks SET sync_status = ? WHERE id = ?`, status, taskID)
		return err
	})
}

// ApplyResolvedTask persists a conflict winner: the snapshot overwrites the
// whole row, the task becomes synced, and the settled queue item is removed.
func (db *DB) ApplyResolvedTask(task *models.Task, queueItemID int64, syncedAt time.Time) error {
	return db.withTx(func(tx *sql.Tx) error {
		var lastSynced any
		if task.LastSyncedAt != nil {
			lastSynced = formatTime(*task.LastSyncedAt)
		}
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO tasks (id, title, description, completed, created_at, updated_at, is_deleted, sync_status, server_id, last_synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, task.Title, task.Description, boolToInt(task.Completed),
			formatTime(task.CreatedAt), formatTime(task.UpdatedAt), boolToInt(task.IsDeleted),
			models.SyncSynced, nullIfEmpty(task.ServerID), lastSynced)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE tasks SET last_synced_at = ? WHERE id = ?`, formatTime(syncedAt), task.ID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`DELETE FROM sync_queue WHERE id = ?`, queueItemID)
		return err
	})
}

// LastSyncedAt returns the most recent successful acknowledgement time across
// all tasks, or nil if nothing has ever synced.
func (db *DB) LastSyncedAt() (*time.Time, error) {
	var ts sql.NullString
	err := db.conn.QueryRow(`SELECT MAX(last_synced_at) FROM tasks WHERE last_synced_at IS NOT NULL`).Scan(&ts)
	if err == sql.ErrNoRows || (err == nil && !ts.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := parseTime(ts.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
