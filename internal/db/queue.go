package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/taskpad/internal/models"
)

// enqueueIntent appends a sync intent inside the caller's transaction. Every
// task mutation calls this from the same commit that changed the row.
func enqueueIntent(tx *sql.Tx, taskID string, op models.Operation, snapshot string, at time.Time) error {
	if !models.IsValidOperation(op) {
		return fmt.Errorf("invalid operation: %q", op)
	}
	_, err := tx.Exec(`
		INSERT INTO sync_queue (task_id, operation, data, created_at, retry_count)
		VALUES (?, ?, ?, ?, 0)
	`, taskID, op, snapshot, formatTime(at))
	if err != nil {
		return fmt.Errorf("enqueue intent: %w", err)
	}
	return nil
}

// GetQueueItems returns every queued intent ordered by task, then by the
// order the mutations happened. The queue row id breaks created_at ties so
// same-instant mutations keep their insertion order.
func (db *DB) GetQueueItems() ([]models.QueueItem, error) {
	rows, err := db.conn.Query(`
		SELECT id, task_id, operation, data, created_at, retry_count, COALESCE(error_message, '')
		FROM sync_queue
		ORDER BY task_id ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		var createdAt string
		if err := rows.Scan(&item.ID, &item.TaskID, &item.Operation, &item.Data,
			&createdAt, &item.RetryCount, &item.ErrorMessage); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("queue item %d created_at: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateQueueItemRetry bumps the retry counter and records the last error.
func (db *DB) UpdateQueueItemRetry(itemID int64, retryCount int, errorMessage string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE sync_queue SET retry_count = ?, error_message = ? WHERE id = ?`,
			retryCount, errorMessage, itemID)
		return err
	})
}

// RemoveQueueItem deletes a single intent by queue row id.
func (db *DB) RemoveQueueItem(itemID int64) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`DELETE FROM sync_queue WHERE id = ?`, itemID)
		return err
	})
}

// RemoveQueueItemsForTask deletes every intent belonging to a task.
func (db *DB) RemoveQueueItemsForTask(taskID string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`DELETE FROM sync_queue WHERE task_id = ?`, taskID)
		return err
	})
}

// CountPendingItems returns the number of queued intents.
func (db *DB) CountPendingItems() (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	return count, err
}
