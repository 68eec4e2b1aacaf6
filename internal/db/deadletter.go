package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/taskpad/internal/models"
)

// MoveToDeadLetter quarantines an exhausted intent: insert into the dead
// letter store, remove from the queue, and mark the task failed, all in one
// transaction. A crash can never leave the item in both places.
func (db *DB) MoveToDeadLetter(item models.QueueItem, finalError string, failedAt time.Time) error {
	return db.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO dead_letter_queue (id, task_id, operation, data, created_at, retry_count, failed_at, final_error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, item.TaskID, item.Operation, item.Data,
			formatTime(item.CreatedAt), item.RetryCount, formatTime(failedAt), finalError)
		if err != nil {
			return fmt.Errorf("insert dead letter: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM sync_queue WHERE id = ?`, item.ID); err != nil {
			return fmt.Errorf("remove queue item: %w", err)
		}

		_, err = tx.Exec(`UPDATE tasks SET sync_status = ? WHERE id = ?`, models.SyncFailed, item.TaskID)
		return err
	})
}

// ListDeadLetters returns dead-lettered intents, newest failures first.
func (db *DB) ListDeadLetters() ([]models.DeadLetter, error) {
	rows, err := db.conn.Query(`
		SELECT id, task_id, operation, data, created_at, retry_count, failed_at, final_error_message
		FROM dead_letter_queue
		ORDER BY failed_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []models.DeadLetter
	for rows.Next() {
		var dl models.DeadLetter
		var createdAt, failedAt string
		if err := rows.Scan(&dl.ID, &dl.TaskID, &dl.Operation, &dl.Data,
			&createdAt, &dl.RetryCount, &failedAt, &dl.FinalErrorMessage); err != nil {
			return nil, err
		}
		if dl.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("dead letter %d created_at: %w", dl.ID, err)
		}
		if dl.FailedAt, err = parseTime(failedAt); err != nil {
			return nil, fmt.Errorf("dead letter %d failed_at: %w", dl.ID, err)
		}
		letters = append(letters, dl)
	}
	return letters, rows.Err()
}

// CountDeadLetters returns the number of quarantined intents.
func (db *DB) CountDeadLetters() (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM dead_letter_queue`).Scan(&count)
	return count, err
}

// PurgeDeadLetters deletes all dead-lettered intents and returns the count.
func (db *DB) PurgeDeadLetters() (int64, error) {
	var affected int64
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(`DELETE FROM dead_letter_queue`)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	return affected, err
}
