package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/marcus/taskpad/internal/models"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetTask(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{
		Title:       "Write the report",
		Description: "Quarterly numbers",
	}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID == "" {
		t.Fatal("Task ID not set")
	}
	if task.SyncStatus != models.SyncPending {
		t.Errorf("sync status: got %s, want pending", task.SyncStatus)
	}

	retrieved, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("task not found after create")
	}
	if retrieved.Title != task.Title {
		t.Errorf("title: got %s, want %s", retrieved.Title, task.Title)
	}
	if retrieved.Description != task.Description {
		t.Errorf("description: got %s, want %s", retrieved.Description, task.Description)
	}
	if retrieved.Completed {
		t.Error("new task should not be completed")
	}
	if retrieved.LastSyncedAt != nil {
		t.Error("new task should have no last_synced_at")
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	db := setupDB(t)

	if err := db.CreateTask(&models.Task{Title: "   "}); err == nil {
		t.Fatal("CreateTask should reject a blank title")
	}
}

func TestCreateTaskEnqueuesIntent(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Queued task"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	items, err := db.GetQueueItems()
	if err != nil {
		t.Fatalf("GetQueueItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("queue items: got %d, want 1", len(items))
	}
	item := items[0]
	if item.TaskID != task.ID {
		t.Errorf("item task id: got %s, want %s", item.TaskID, task.ID)
	}
	if item.Operation != models.OpCreate {
		t.Errorf("item operation: got %s, want create", item.Operation)
	}
	if item.RetryCount != 0 {
		t.Errorf("retry count: got %d, want 0", item.RetryCount)
	}

	// The snapshot must reflect the task at intent time.
	var snap models.Task
	if err := json.Unmarshal([]byte(item.Data), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.ID != task.ID || snap.Title != task.Title {
		t.Errorf("snapshot mismatch: got %+v", snap)
	}
}

func TestUpdateTaskPatchSemantics(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Original", Description: "Keep me"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	newTitle := "Renamed"
	updated, err := db.UpdateTask(task.ID, models.TaskPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated == nil {
		t.Fatal("UpdateTask returned nil for existing task")
	}
	if updated.Title != "Renamed" {
		t.Errorf("title: got %s, want Renamed", updated.Title)
	}
	if updated.Description != "Keep me" {
		t.Errorf("unpatched description changed: got %s", updated.Description)
	}
	if !updated.UpdatedAt.After(task.CreatedAt) && !updated.UpdatedAt.Equal(task.CreatedAt) {
		t.Error("updated_at not refreshed")
	}
	if updated.SyncStatus != models.SyncPending {
		t.Errorf("sync status after update: got %s, want pending", updated.SyncStatus)
	}

	// Update intent is appended after the create intent.
	items, err := db.GetQueueItems()
	if err != nil {
		t.Fatalf("GetQueueItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("queue items: got %d, want 2", len(items))
	}
	if items[0].Operation != models.OpCreate || items[1].Operation != models.OpUpdate {
		t.Errorf("queue order: got %s,%s want create,update", items[0].Operation, items[1].Operation)
	}
}

func TestUpdateTaskMissing(t *testing.T) {
	db := setupDB(t)

	title := "Ghost"
	updated, err := db.UpdateTask("tk-nope", models.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated != nil {
		t.Error("UpdateTask should return nil for missing task")
	}
}

func TestUpdateTaskRejectsEmptyTitle(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Has title"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	empty := " "
	if _, err := db.UpdateTask(task.ID, models.TaskPatch{Title: &empty}); err == nil {
		t.Fatal("UpdateTask should reject an empty title")
	}
}

func TestDeleteTask(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Doomed"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	deleted, err := db.DeleteTask(task.ID)
	if err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if !deleted {
		t.Fatal("DeleteTask reported not deleted")
	}

	// Hidden from reads and lists.
	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got != nil {
		t.Error("soft-deleted task still visible")
	}
	tasks, err := db.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("ListTasks after delete: got %d tasks", len(tasks))
	}

	// Delete intent carries the final snapshot with is_deleted set.
	items, err := db.GetQueueItems()
	if err != nil {
		t.Fatalf("GetQueueItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("queue items: got %d, want 2", len(items))
	}
	var snap models.Task
	if err := json.Unmarshal([]byte(items[1].Data), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if !snap.IsDeleted {
		t.Error("delete snapshot should carry is_deleted")
	}

	// Deleting again is a no-op.
	deleted, err = db.DeleteTask(task.ID)
	if err != nil {
		t.Fatalf("second DeleteTask failed: %v", err)
	}
	if deleted {
		t.Error("second delete should report false")
	}
}

func TestListNeedingSync(t *testing.T) {
	db := setupDB(t)

	a := &models.Task{Title: "A"}
	b := &models.Task{Title: "B"}
	c := &models.Task{Title: "C"}
	for _, task := range []*models.Task{a, b, c} {
		if err := db.CreateTask(task); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	if err := db.MarkTaskSynced(b.ID, "srv-b", time.Now()); err != nil {
		t.Fatalf("MarkTaskSynced failed: %v", err)
	}
	if err := db.SetTaskSyncStatus(c.ID, models.SyncError); err != nil {
		t.Fatalf("SetTaskSyncStatus failed: %v", err)
	}

	needing, err := db.ListNeedingSync()
	if err != nil {
		t.Fatalf("ListNeedingSync failed: %v", err)
	}
	if len(needing) != 2 {
		t.Fatalf("needing sync: got %d, want 2", len(needing))
	}
	for _, task := range needing {
		if task.ID == b.ID {
			t.Error("synced task should not need sync")
		}
	}
}

func TestMarkTaskSyncedClearsQueue(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Busy task"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	title := "Edited"
	if _, err := db.UpdateTask(task.ID, models.TaskPatch{Title: &title}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	syncedAt := time.Now()
	if err := db.MarkTaskSynced(task.ID, "srv-123", syncedAt); err != nil {
		t.Fatalf("MarkTaskSynced failed: %v", err)
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("sync status: got %s, want synced", got.SyncStatus)
	}
	if got.ServerID != "srv-123" {
		t.Errorf("server id: got %s, want srv-123", got.ServerID)
	}
	if got.LastSyncedAt == nil {
		t.Fatal("last_synced_at not set")
	}

	count, err := db.CountPendingItems()
	if err != nil {
		t.Fatalf("CountPendingItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("queue not cleared: %d items remain", count)
	}
}

func TestMarkTaskSyncedKeepsServerID(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Known to server"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := db.MarkTaskSynced(task.ID, "srv-first", time.Now()); err != nil {
		t.Fatalf("MarkTaskSynced failed: %v", err)
	}

	// Empty server id on a later ack must not wipe the stored one.
	if err := db.MarkTaskSynced(task.ID, "", time.Now()); err != nil {
		t.Fatalf("second MarkTaskSynced failed: %v", err)
	}
	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.ServerID != "srv-first" {
		t.Errorf("server id: got %q, want srv-first", got.ServerID)
	}
}

func TestApplyResolvedTask(t *testing.T) {
	db := setupDB(t)

	task := &models.Task{Title: "Local version"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	items, err := db.GetQueueItems()
	if err != nil || len(items) != 1 {
		t.Fatalf("queue setup: items=%d err=%v", len(items), err)
	}

	winner := &models.Task{
		ID:        task.ID,
		Title:     "Server version",
		CreatedAt: task.CreatedAt,
		UpdatedAt: time.Now().UTC(),
		ServerID:  "srv-w",
	}
	syncedAt := time.Now()
	if err := db.ApplyResolvedTask(winner, items[0].ID, syncedAt); err != nil {
		t.Fatalf("ApplyResolvedTask failed: %v", err)
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Title != "Server version" {
		t.Errorf("title: got %s, want Server version", got.Title)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("sync status: got %s, want synced", got.SyncStatus)
	}
	if got.ServerID != "srv-w" {
		t.Errorf("server id: got %s, want srv-w", got.ServerID)
	}
	if got.LastSyncedAt == nil {
		t.Error("last_synced_at not set")
	}

	count, err := db.CountPendingItems()
	if err != nil {
		t.Fatalf("CountPendingItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("settled queue item not removed: %d remain", count)
	}
}

func TestLastSyncedAt(t *testing.T) {
	db := setupDB(t)

	got, err := db.LastSyncedAt()
	if err != nil {
		t.Fatalf("LastSyncedAt failed: %v", err)
	}
	if got != nil {
		t.Error("LastSyncedAt should be nil before any sync")
	}

	task := &models.Task{Title: "Synced once"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	when := time.Now().UTC().Truncate(time.Second)
	if err := db.MarkTaskSynced(task.ID, "srv-1", when); err != nil {
		t.Fatalf("MarkTaskSynced failed: %v", err)
	}

	got, err = db.LastSyncedAt()
	if err != nil {
		t.Fatalf("LastSyncedAt failed: %v", err)
	}
	if got == nil {
		t.Fatal("LastSyncedAt nil after sync")
	}
	if !got.Equal(when) {
		t.Errorf("last synced: got %v, want %v", got, when)
	}
}
