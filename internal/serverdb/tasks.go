package serverdb

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcus/taskpad/internal/models"
)

// ApplyOutcome is the server-side result of applying one intent.
type ApplyOutcome struct {
	ServerID string
	Conflict bool
	Stored   *models.Task // the authoritative snapshot, set on conflict
}

// ApplyIntent applies one client intent to the authoritative store.
//
// A row that is already newer than the incoming snapshot is a conflict; the
// stored snapshot is returned so the client can resolve it. Replaying an
// already-applied intent compares equal timestamps and lands in the same row
// state, which keeps the endpoint idempotent with respect to client replay.
func (s *ServerDB) ApplyIntent(operation string, snapshot json.RawMessage, receivedAt time.Time) (*ApplyOutcome, error) {
	var incoming models.Task
	if err := json.Unmarshal(snapshot, &incoming); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if incoming.ID == "" {
		return nil, fmt.Errorf("snapshot missing task id")
	}

	stored, serverID, err := s.getByClientID(incoming.ID)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		// First sight of this task. Deletes of unknown rows are acknowledged
		// as successes so replayed delete intents stay harmless.
		serverID, err = generateServerID()
		if err != nil {
			return nil, err
		}
		isDeleted := incoming.IsDeleted || operation == "delete"
		_, err = s.conn.Exec(`
			INSERT INTO server_tasks (client_id, server_id, title, description, completed, created_at, updated_at, is_deleted, received_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, incoming.ID, serverID, incoming.Title, incoming.Description, boolToInt(incoming.Completed),
			incoming.CreatedAt.UTC().Format(time.RFC3339Nano), incoming.UpdatedAt.UTC().Format(time.RFC3339Nano),
			boolToInt(isDeleted), receivedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		return &ApplyOutcome{ServerID: serverID}, nil
	}

	if stored.UpdatedAt.After(incoming.UpdatedAt) {
		stored.ServerID = serverID
		return &ApplyOutcome{ServerID: serverID, Conflict: true, Stored: stored}, nil
	}

	isDeleted := incoming.IsDeleted || operation == "delete"
	_, err = s.conn.Exec(`
		UPDATE server_tasks SET title = ?, description = ?, completed = ?, updated_at = ?, is_deleted = ?, received_at = ?
		WHERE client_id = ?
	`, incoming.Title, incoming.Description, boolToInt(incoming.Completed),
		incoming.UpdatedAt.UTC().Format(time.RFC3339Nano), boolToInt(isDeleted),
		receivedAt.UTC().Format(time.RFC3339Nano), incoming.ID)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &ApplyOutcome{ServerID: serverID}, nil
}

// getByClientID fetches the stored snapshot for a client task id, or nil.
func (s *ServerDB) getByClientID(clientID string) (*models.Task, string, error) {
	var task models.Task
	var serverID string
	var completed, isDeleted int
	var createdAt, updatedAt string

	err := s.conn.QueryRow(`
		SELECT client_id, server_id, title, description, completed, created_at, updated_at, is_deleted
		FROM server_tasks WHERE client_id = ?
	`, clientID).Scan(&task.ID, &serverID, &task.Title, &task.Description,
		&completed, &createdAt, &updatedAt, &isDeleted)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	task.Completed = completed != 0
	task.IsDeleted = isDeleted != 0
	if task.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, "", fmt.Errorf("task %s created_at: %w", clientID, err)
	}
	if task.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, "", fmt.Errorf("task %s updated_at: %w", clientID, err)
	}

	return &task, serverID, nil
}

// CountTasks returns the number of stored task rows.
func (s *ServerDB) CountTasks() (int64, error) {
	var count int64
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM server_tasks`).Scan(&count)
	return count, err
}

// PurgeDeleted hard-deletes soft-deleted rows last touched before cutoff.
// Returns the number of rows removed.
func (s *ServerDB) PurgeDeleted(cutoff time.Time) (int64, error) {
	res, err := s.conn.Exec(`
		DELETE FROM server_tasks WHERE is_deleted = 1 AND updated_at < ?
	`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("purge deleted tasks: %w", err)
	}
	return res.RowsAffected()
}

// generateServerID creates a server-assigned task identifier.
func generateServerID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "srv-" + hex.EncodeToString(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
