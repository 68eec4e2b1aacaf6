package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
)

// fakeTransport records batch requests and answers with a scripted response.
type fakeTransport struct {
	healthErr error
	postErr   error
	batches   []*BatchRequest
	respond   func(req *BatchRequest) *BatchResponse
}

func (f *fakeTransport) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeTransport) PostBatch(ctx context.Context, req *BatchRequest) (*BatchResponse, error) {
	f.batches = append(f.batches, req)
	if f.postErr != nil {
		return nil, f.postErr
	}
	if f.respond != nil {
		return f.respond(req), nil
	}
	return allSuccess(req), nil
}

// allSuccess acknowledges every item in the request.
func allSuccess(req *BatchRequest) *BatchResponse {
	resp := &BatchResponse{
		ServerTimestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		ChecksumVerified: true,
	}
	for _, item := range req.Items {
		resp.ProcessedItems = append(resp.ProcessedItems, ProcessedItem{
			ClientID: item.ID,
			ServerID: "srv-" + item.TaskID,
			Status:   StatusSuccess,
		})
	}
	return resp
}

func setupEngine(t *testing.T, transport Transport, cfg Config) (*Engine, *db.DB) {
	t.Helper()
	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewEngine(database, transport, cfg), database
}

func createTask(t *testing.T, database *db.DB, title string) *models.Task {
	t.Helper()
	task := &models.Task{Title: title}
	if err := database.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	return task
}

func TestRunCycleOffline(t *testing.T) {
	transport := &fakeTransport{healthErr: errors.New("connection refused")}
	engine, database := setupEngine(t, transport, Config{})
	task := createTask(t, database, "Offline edit")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if result.Success {
		t.Error("offline cycle should not report success")
	}
	if len(result.Errors) != 1 || result.Errors[0].TaskID != ErrorSourceConnection {
		t.Errorf("errors: got %+v, want one connection error", result.Errors)
	}
	if len(transport.batches) != 0 {
		t.Error("no batch should be sent while offline")
	}

	// Queue untouched: no retry advanced, task still pending.
	items, err := database.GetQueueItems()
	if err != nil {
		t.Fatalf("GetQueueItems failed: %v", err)
	}
	if len(items) != 1 || items[0].RetryCount != 0 {
		t.Errorf("queue after offline cycle: %+v", items)
	}
	got, _ := database.GetTask(task.ID)
	if got.SyncStatus != models.SyncPending {
		t.Errorf("task status: got %s, want pending", got.SyncStatus)
	}
}

func TestRunCycleEmptyQueue(t *testing.T) {
	transport := &fakeTransport{}
	engine, _ := setupEngine(t, transport, Config{})

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if !result.Success {
		t.Error("empty cycle should succeed")
	}
	if len(transport.batches) != 0 {
		t.Error("no batch should be sent for an empty queue")
	}
}

func TestRunCycleHappyPath(t *testing.T) {
	transport := &fakeTransport{}
	engine, database := setupEngine(t, transport, Config{})
	a := createTask(t, database, "First")
	b := createTask(t, database, "Second")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if !result.Success {
		t.Errorf("cycle failed: %+v", result.Errors)
	}
	if result.SyncedItems != 2 {
		t.Errorf("synced: got %d, want 2", result.SyncedItems)
	}

	for _, task := range []*models.Task{a, b} {
		got, err := database.GetTask(task.ID)
		if err != nil {
			t.Fatalf("GetTask failed: %v", err)
		}
		if got.SyncStatus != models.SyncSynced {
			t.Errorf("task %s status: got %s, want synced", task.ID, got.SyncStatus)
		}
		if got.ServerID == "" {
			t.Errorf("task %s missing server id", task.ID)
		}
		if got.LastSyncedAt == nil {
			t.Errorf("task %s missing last_synced_at", task.ID)
		}
	}

	count, _ := database.CountPendingItems()
	if count != 0 {
		t.Errorf("queue not drained: %d items remain", count)
	}

	// Request carried a checksum the server could verify.
	if len(transport.batches) != 1 {
		t.Fatalf("batches sent: got %d, want 1", len(transport.batches))
	}
	req := transport.batches[0]
	if req.Checksum != Checksum(req.Items) {
		t.Error("request checksum does not match items")
	}
	if req.ClientTimestamp == "" {
		t.Error("request missing client timestamp")
	}
}

func TestRunCycleRespectsBatchSize(t *testing.T) {
	transport := &fakeTransport{}
	engine, database := setupEngine(t, transport, Config{BatchSize: 1})
	createTask(t, database, "One")
	createTask(t, database, "Two")
	createTask(t, database, "Three")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if !result.Success || result.SyncedItems != 3 {
		t.Errorf("result: %+v", result)
	}
	if len(transport.batches) != 3 {
		t.Fatalf("batches: got %d, want 3", len(transport.batches))
	}
	for i, req := range transport.batches {
		if len(req.Items) != 1 {
			t.Errorf("batch %d: got %d items, want 1", i, len(req.Items))
		}
	}
}

func TestRunCycleConflictServerWins(t *testing.T) {
	serverSnap := &models.Task{
		Title:     "Server truth",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		UpdatedAt: time.Now().UTC().Add(time.Hour),
	}
	transport := &fakeTransport{
		respond: func(req *BatchRequest) *BatchResponse {
			resp := &BatchResponse{ChecksumVerified: true}
			for _, item := range req.Items {
				snap := *serverSnap
				snap.ID = item.TaskID
				resp.ProcessedItems = append(resp.ProcessedItems, ProcessedItem{
					ClientID:     item.ID,
					ServerID:     "srv-conf",
					Status:       StatusConflict,
					ResolvedData: &snap,
				})
			}
			return resp
		},
	}
	engine, database := setupEngine(t, transport, Config{})
	task := createTask(t, database, "Local edit")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if !result.Success || result.SyncedItems != 1 {
		t.Errorf("result: %+v", result)
	}

	got, err := database.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "Server truth" {
		t.Errorf("title: got %s, want server snapshot", got.Title)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("status: got %s, want synced", got.SyncStatus)
	}
	if got.ServerID != "srv-conf" {
		t.Errorf("server id: got %s, want srv-conf", got.ServerID)
	}

	count, _ := database.CountPendingItems()
	if count != 0 {
		t.Errorf("settled item not removed: %d remain", count)
	}
}

func TestRunCycleConflictLocalWins(t *testing.T) {
	transport := &fakeTransport{
		respond: func(req *BatchRequest) *BatchResponse {
			resp := &BatchResponse{ChecksumVerified: true}
			for _, item := range req.Items {
				stale := &models.Task{
					ID:        item.TaskID,
					Title:     "Stale server copy",
					UpdatedAt: time.Now().UTC().Add(-24 * time.Hour),
				}
				resp.ProcessedItems = append(resp.ProcessedItems, ProcessedItem{
					ClientID:     item.ID,
					ServerID:     "srv-stale",
					Status:       StatusConflict,
					ResolvedData: stale,
				})
			}
			return resp
		},
	}
	engine, database := setupEngine(t, transport, Config{})
	task := createTask(t, database, "Fresh local edit")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if !result.Success || result.SyncedItems != 1 {
		t.Errorf("result: %+v", result)
	}

	got, err := database.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "Fresh local edit" {
		t.Errorf("title: got %s, want local snapshot", got.Title)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("status: got %s, want synced", got.SyncStatus)
	}
}

func TestRunCycleRetryThenDeadLetter(t *testing.T) {
	transport := &fakeTransport{postErr: errors.New("boom")}
	engine, database := setupEngine(t, transport, Config{MaxRetries: 3})
	task := createTask(t, database, "Cursed")

	// First two cycles bump the retry counter and flag the task errored.
	for cycle, wantRetry := range []int{1, 2} {
		result, err := engine.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("cycle %d failed: %v", cycle, err)
		}
		if result.Success || result.FailedItems != 1 {
			t.Errorf("cycle %d result: %+v", cycle, result)
		}

		items, err := database.GetQueueItems()
		if err != nil {
			t.Fatalf("GetQueueItems failed: %v", err)
		}
		if len(items) != 1 || items[0].RetryCount != wantRetry {
			t.Fatalf("cycle %d queue: %+v, want retry %d", cycle, items, wantRetry)
		}
		got, _ := database.GetTask(task.ID)
		if got.SyncStatus != models.SyncError {
			t.Errorf("cycle %d status: got %s, want error", cycle, got.SyncStatus)
		}
	}

	// Third failure exhausts the budget: quarantine, not another retry.
	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("final cycle failed: %v", err)
	}
	if result.Success {
		t.Error("final cycle should not succeed")
	}

	count, _ := database.CountPendingItems()
	if count != 0 {
		t.Errorf("queue after dead-letter: %d items remain", count)
	}
	letters, err := database.ListDeadLetters()
	if err != nil {
		t.Fatalf("ListDeadLetters failed: %v", err)
	}
	if len(letters) != 1 {
		t.Fatalf("dead letters: got %d, want 1", len(letters))
	}
	if letters[0].TaskID != task.ID {
		t.Errorf("dead letter task: got %s, want %s", letters[0].TaskID, task.ID)
	}
	got, _ := database.GetTask(task.ID)
	if got.SyncStatus != models.SyncFailed {
		t.Errorf("task status: got %s, want failed", got.SyncStatus)
	}
}

func TestRunCycleServerErrorStatus(t *testing.T) {
	transport := &fakeTransport{
		respond: func(req *BatchRequest) *BatchResponse {
			resp := &BatchResponse{ChecksumVerified: true}
			for _, item := range req.Items {
				resp.ProcessedItems = append(resp.ProcessedItems, ProcessedItem{
					ClientID: item.ID,
					Status:   StatusError,
					Error:    "validation failed",
				})
			}
			return resp
		},
	}
	engine, database := setupEngine(t, transport, Config{})
	task := createTask(t, database, "Rejected")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Success || result.FailedItems != 1 {
		t.Errorf("result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].TaskID != task.ID {
		t.Errorf("errors: %+v", result.Errors)
	}

	items, _ := database.GetQueueItems()
	if len(items) != 1 || items[0].RetryCount != 1 {
		t.Errorf("queue: %+v, want one item with retry 1", items)
	}
	if items[0].ErrorMessage != "validation failed" {
		t.Errorf("error message: got %q", items[0].ErrorMessage)
	}
}

func TestRunCyclePartialFailure(t *testing.T) {
	// One task succeeds, the other errors; the cycle settles both.
	transport := &fakeTransport{
		respond: func(req *BatchRequest) *BatchResponse {
			resp := &BatchResponse{ChecksumVerified: true}
			for i, item := range req.Items {
				p := ProcessedItem{ClientID: item.ID}
				if i == 0 {
					p.Status = StatusSuccess
					p.ServerID = "srv-ok"
				} else {
					p.Status = StatusError
					p.Error = "bad payload"
				}
				resp.ProcessedItems = append(resp.ProcessedItems, p)
			}
			return resp
		},
	}
	engine, database := setupEngine(t, transport, Config{})
	createTask(t, database, "Good")
	createTask(t, database, "Bad")

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if result.Success {
		t.Error("partial failure should not report success")
	}
	if result.SyncedItems != 1 || result.FailedItems != 1 {
		t.Errorf("result: %+v", result)
	}
}

func TestRunCycleAlreadyRunning(t *testing.T) {
	engine, _ := setupEngine(t, &fakeTransport{}, Config{})
	engine.busy.Store(true)

	_, err := engine.RunCycle(context.Background())
	if !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("err: got %v, want ErrCycleInProgress", err)
	}
}

func TestCheckConnectivity(t *testing.T) {
	engine, _ := setupEngine(t, &fakeTransport{}, Config{})
	if !engine.CheckConnectivity(context.Background()) {
		t.Error("healthy transport should report connectivity")
	}

	down, _ := setupEngine(t, &fakeTransport{healthErr: errors.New("down")}, Config{})
	if down.CheckConnectivity(context.Background()) {
		t.Error("failing transport should not report connectivity")
	}
}
