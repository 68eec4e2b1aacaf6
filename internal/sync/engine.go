package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
)

// Transport carries one batch to the server. Implemented by syncclient.Client;
// tests substitute fakes.
type Transport interface {
	PostBatch(ctx context.Context, req *BatchRequest) (*BatchResponse, error)
	Health(ctx context.Context) error
}

// Config bounds a sync cycle.
type Config struct {
	BatchSize  int // max items per outbound batch
	MaxRetries int // attempts before dead-lettering
}

const (
	DefaultBatchSize  = 10
	DefaultMaxRetries = 3
)

// ErrCycleInProgress is returned when RunCycle is called while another cycle
// is still running in this process.
var ErrCycleInProgress = errors.New("sync cycle already in progress")

// Engine drives the upload protocol: probe, drain, group, batch, transmit,
// settle. One cycle at a time per process; the store's write lock serializes
// the settle steps across processes.
type Engine struct {
	db     *db.DB
	client Transport
	cfg    Config
	busy   atomic.Bool
	now    func() time.Time
}

// NewEngine creates an engine over the local store and a transport.
// Zero config fields fall back to the defaults.
func NewEngine(database *db.DB, client Transport, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Engine{
		db:     database,
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CheckConnectivity reports whether the server's health endpoint answered.
func (e *Engine) CheckConnectivity(ctx context.Context) bool {
	return e.client.Health(ctx) == nil
}

// RunCycle performs one full sync cycle and reports its outcome. Per-item
// failures never abort the cycle; they are reflected in the result. The only
// error returned is ErrCycleInProgress.
func (e *Engine) RunCycle(ctx context.Context) (*SyncResult, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer e.busy.Store(false)

	result := &SyncResult{}

	// Probe. An unreachable server defers the whole cycle; no queue item is
	// touched and no retry counter advances.
	if err := e.client.Health(ctx); err != nil {
		slog.Debug("sync: server unreachable", "err", err)
		result.Errors = append(result.Errors, SyncError{
			TaskID: ErrorSourceConnection,
			Error:  fmt.Sprintf("server unreachable: %v", err),
		})
		return result, nil
	}

	items, err := e.db.GetQueueItems()
	if err != nil {
		result.Errors = append(result.Errors, SyncError{
			TaskID: ErrorSourceService,
			Error:  fmt.Sprintf("read sync queue: %v", err),
		})
		return result, nil
	}
	if len(items) == 0 {
		result.Success = true
		return result, nil
	}

	batches := BuildBatches(GroupByTask(items), e.cfg.BatchSize)
	slog.Debug("sync: cycle start", "items", len(items), "batches", len(batches))

	for _, batch := range batches {
		e.runBatch(ctx, batch, result)
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

// runBatch transmits one batch and settles every item in it. A transport
// failure feeds the whole batch through the failure handler; the cycle moves
// on to the next batch either way.
func (e *Engine) runBatch(ctx context.Context, batch []models.QueueItem, result *SyncResult) {
	taskIDs := make([]string, 0, len(batch))
	seen := make(map[string]bool, len(batch))
	for _, item := range batch {
		if !seen[item.TaskID] {
			seen[item.TaskID] = true
			taskIDs = append(taskIDs, item.TaskID)
		}
	}
	if err := e.db.MarkTasksInProgress(taskIDs); err != nil {
		result.Errors = append(result.Errors, SyncError{
			TaskID: ErrorSourceService,
			Error:  fmt.Sprintf("mark in-progress: %v", err),
		})
		return
	}

	intents := make([]SyncIntent, len(batch))
	for i, item := range batch {
		intents[i] = SyncIntent{
			ID:         item.ID,
			TaskID:     item.TaskID,
			Operation:  string(item.Operation),
			Data:       json.RawMessage(item.Data),
			CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339Nano),
			RetryCount: item.RetryCount,
		}
	}
	req := &BatchRequest{
		Items:           intents,
		ClientTimestamp: e.now().UTC().Format(time.RFC3339Nano),
		Checksum:        Checksum(intents),
	}

	resp, err := e.client.PostBatch(ctx, req)
	if err != nil {
		slog.Warn("sync: batch transport failure", "items", len(batch), "err", err)
		for _, item := range batch {
			e.handleFailure(item, fmt.Sprintf("batch transport failure: %v", err), result)
		}
		return
	}
	if !resp.ChecksumVerified {
		slog.Warn("sync: server could not verify batch checksum")
	}

	byID := make(map[int64]models.QueueItem, len(batch))
	for _, item := range batch {
		byID[item.ID] = item
	}
	for _, processed := range resp.ProcessedItems {
		item, ok := byID[processed.ClientID]
		if !ok {
			slog.Warn("sync: response for unknown item", "client_id", processed.ClientID)
			continue
		}
		e.settleItem(item, processed, result)
	}
}

// settleItem applies one server outcome to the local replica.
func (e *Engine) settleItem(item models.QueueItem, processed ProcessedItem, result *SyncResult) {
	switch processed.Status {
	case StatusSuccess:
		if err := e.db.MarkTaskSynced(item.TaskID, processed.ServerID, e.now()); err != nil {
			result.Errors = append(result.Errors, SyncError{
				TaskID: ErrorSourceService,
				Error:  fmt.Sprintf("mark task %s synced: %v", item.TaskID, err),
			})
			return
		}
		result.SyncedItems++

	case StatusConflict:
		if processed.ResolvedData == nil {
			e.handleFailure(item, "conflict response missing server snapshot", result)
			return
		}
		e.resolveConflict(item, processed, result)

	case StatusError:
		msg := processed.Error
		if msg == "" {
			msg = "server reported an unspecified error"
		}
		e.handleFailure(item, msg, result)

	default:
		e.handleFailure(item, fmt.Sprintf("unknown item status %q", processed.Status), result)
	}
}

// resolveConflict settles a conflicting item: last writer wins on updated_at,
// server on ties. The winner is persisted as if the item had succeeded.
func (e *Engine) resolveConflict(item models.QueueItem, processed ProcessedItem, result *SyncResult) {
	var local models.Task
	if err := json.Unmarshal([]byte(item.Data), &local); err != nil {
		e.handleFailure(item, fmt.Sprintf("decode local snapshot: %v", err), result)
		return
	}

	winner := Resolve(&local, processed.ResolvedData)
	if winner.ID == "" {
		winner.ID = item.TaskID
	}
	if winner.ServerID == "" {
		winner.ServerID = processed.ServerID
	}

	slog.Debug("sync: conflict resolved", "task", item.TaskID,
		"winner_updated_at", winner.UpdatedAt, "local_won", winner == &local)

	if err := e.db.ApplyResolvedTask(winner, item.ID, e.now()); err != nil {
		result.Errors = append(result.Errors, SyncError{
			TaskID: ErrorSourceService,
			Error:  fmt.Sprintf("apply resolved task %s: %v", item.TaskID, err),
		})
		return
	}
	result.SyncedItems++
}

// handleFailure runs the retry/dead-letter accounting for one failing item.
func (e *Engine) handleFailure(item models.QueueItem, message string, result *SyncResult) {
	if item.RetryCount+1 < e.cfg.MaxRetries {
		if err := e.db.UpdateQueueItemRetry(item.ID, item.RetryCount+1, message); err != nil {
			result.Errors = append(result.Errors, SyncError{
				TaskID: ErrorSourceService,
				Error:  fmt.Sprintf("bump retry for item %d: %v", item.ID, err),
			})
			return
		}
		if err := e.db.SetTaskSyncStatus(item.TaskID, models.SyncError); err != nil {
			result.Errors = append(result.Errors, SyncError{
				TaskID: ErrorSourceService,
				Error:  fmt.Sprintf("mark task %s errored: %v", item.TaskID, err),
			})
			return
		}
	} else {
		if err := e.db.MoveToDeadLetter(item, message, e.now()); err != nil {
			result.Errors = append(result.Errors, SyncError{
				TaskID: ErrorSourceService,
				Error:  fmt.Sprintf("dead-letter item %d: %v", item.ID, err),
			})
			return
		}
		slog.Warn("sync: intent dead-lettered", "task", item.TaskID, "item", item.ID, "err", message)
	}

	result.FailedItems++
	result.Errors = append(result.Errors, SyncError{TaskID: item.TaskID, Error: message})
}
