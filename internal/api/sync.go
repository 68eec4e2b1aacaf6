package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	tdsync "github.com/marcus/taskpad/internal/sync"
)

const maxBatchItems = 1000

// handleBatch processes POST /api/sync/batch. Semantic outcomes ride in
// processed_items; HTTP errors are reserved for malformed requests.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req tdsync.BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed batch request")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "empty_batch", "batch has no items")
		return
	}
	if len(req.Items) > maxBatchItems {
		writeError(w, http.StatusBadRequest, "batch_too_large", "too many items in batch")
		return
	}

	// Checksum mismatches are logged and echoed, not rejected. The checksum
	// is a corruption hint; the per-item outcomes below stay authoritative.
	verified := tdsync.Checksum(req.Items) == req.Checksum
	if !verified {
		slog.Warn("batch checksum mismatch", "items", len(req.Items), "claimed", req.Checksum)
	}

	now := time.Now().UTC()
	processed := make([]tdsync.ProcessedItem, 0, len(req.Items))
	for _, item := range req.Items {
		processed = append(processed, s.processItem(item, now))
	}

	writeJSON(w, http.StatusOK, tdsync.BatchResponse{
		ProcessedItems:   processed,
		ServerTimestamp:  now.Format(time.RFC3339Nano),
		ChecksumVerified: verified,
	})
}

func (s *Server) processItem(item tdsync.SyncIntent, now time.Time) tdsync.ProcessedItem {
	outcome, err := s.store.ApplyIntent(item.Operation, item.Data, now)
	if err != nil {
		slog.Warn("apply intent", "client_id", item.ID, "task", item.TaskID, "err", err)
		return tdsync.ProcessedItem{
			ClientID: item.ID,
			Status:   tdsync.StatusError,
			Error:    err.Error(),
		}
	}

	if outcome.Conflict {
		return tdsync.ProcessedItem{
			ClientID:     item.ID,
			ServerID:     outcome.ServerID,
			Status:       tdsync.StatusConflict,
			ResolvedData: outcome.Stored,
		}
	}

	return tdsync.ProcessedItem{
		ClientID: item.ID,
		ServerID: outcome.ServerID,
		Status:   tdsync.StatusSuccess,
	}
}
