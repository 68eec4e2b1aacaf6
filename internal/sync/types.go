package sync

import (
	"encoding/json"

	"github.com/marcus/taskpad/internal/models"
)

// Item statuses the server may report for a processed intent.
const (
	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusError    = "error"
)

// Synthetic task ids used in SyncResult error records.
const (
	ErrorSourceConnection = "connection"   // connectivity probe failed
	ErrorSourceService    = "sync_service" // local store failure
)

// SyncIntent is the wire form of a queued intent in a batch request.
type SyncIntent struct {
	ID         int64           `json:"id"`
	TaskID     string          `json:"task_id"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  string          `json:"created_at"`
	RetryCount int             `json:"retry_count"`
}

// BatchRequest is the body for POST /sync/batch.
type BatchRequest struct {
	Items           []SyncIntent `json:"items"`
	ClientTimestamp string       `json:"client_timestamp"`
	Checksum        string       `json:"checksum"`
}

// ProcessedItem is the per-intent outcome in a batch response.
// ResolvedData is present iff status is conflict.
type ProcessedItem struct {
	ClientID     int64        `json:"client_id"`
	ServerID     string       `json:"server_id,omitempty"`
	Status       string       `json:"status"`
	ResolvedData *models.Task `json:"resolved_data,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// BatchResponse is the server's reply to a batch request.
type BatchResponse struct {
	ProcessedItems   []ProcessedItem `json:"processed_items"`
	ServerTimestamp  string          `json:"server_timestamp"`
	ChecksumVerified bool            `json:"checksum_verified"`
}

// SyncError is one failure record in a cycle summary.
type SyncError struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

// SyncResult summarises one sync cycle.
type SyncResult struct {
	Success     bool        `json:"success"`
	SyncedItems int         `json:"synced_items"`
	FailedItems int         `json:"failed_items"`
	Errors      []SyncError `json:"errors"`
}
