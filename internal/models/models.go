package models

import (
	"time"
)

// SyncStatus represents where a task sits in the upload lifecycle
type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncInProgress SyncStatus = "in-progress"
	SyncSynced     SyncStatus = "synced"
	SyncError      SyncStatus = "error"
	SyncFailed     SyncStatus = "failed" // terminal, retries exhausted
)

// IsValidSyncStatus reports whether s is a known sync status value
func IsValidSyncStatus(s SyncStatus) bool {
	switch s {
	case SyncPending, SyncInProgress, SyncSynced, SyncError, SyncFailed:
		return true
	}
	return false
}

// Operation represents the kind of mutation a sync intent carries
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// IsValidOperation reports whether op is a known intent operation
func IsValidOperation(op Operation) bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Task represents a single user task in the local replica
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	IsDeleted    bool       `json:"is_deleted"`
	SyncStatus   SyncStatus `json:"sync_status"`
	ServerID     string     `json:"server_id,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// TaskPatch holds the mutable fields of a task for updates.
// Nil fields are left untouched; the task ID is never patchable.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// QueueItem is a durable sync intent: one per acknowledged local mutation
type QueueItem struct {
	ID           int64     `json:"id"`
	TaskID       string    `json:"task_id"`
	Operation    Operation `json:"operation"`
	Data         string    `json:"data"` // JSON snapshot of the task at intent time
	CreatedAt    time.Time `json:"created_at"`
	RetryCount   int       `json:"retry_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// DeadLetter is a queue item whose retries were exhausted
type DeadLetter struct {
	QueueItem
	FailedAt          time.Time `json:"failed_at"`
	FinalErrorMessage string    `json:"final_error_message"`
}
