package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
	"github.com/marcus/taskpad/internal/sync"
)

type stubTransport struct {
	healthErr error
}

func (s *stubTransport) Health(ctx context.Context) error { return s.healthErr }

func (s *stubTransport) PostBatch(ctx context.Context, req *sync.BatchRequest) (*sync.BatchResponse, error) {
	return nil, errors.New("not used")
}

func TestFetchStatus(t *testing.T) {
	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer database.Close()

	a := &models.Task{Title: "Waiting"}
	if err := database.CreateTask(a); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	b := &models.Task{Title: "Done"}
	if err := database.CreateTask(b); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := database.MarkTaskSynced(b.ID, "srv-b", time.Now()); err != nil {
		t.Fatalf("MarkTaskSynced failed: %v", err)
	}

	snap, err := FetchStatus(database, &stubTransport{})
	if err != nil {
		t.Fatalf("FetchStatus failed: %v", err)
	}

	if snap.Pending != 1 {
		t.Errorf("pending: got %d, want 1", snap.Pending)
	}
	if len(snap.NeedingSync) != 1 || snap.NeedingSync[0].ID != a.ID {
		t.Errorf("needing sync: %+v", snap.NeedingSync)
	}
	if len(snap.DeadLetters) != 0 {
		t.Errorf("dead letters: got %d, want 0", len(snap.DeadLetters))
	}
	if snap.LastSyncedAt == nil {
		t.Error("last synced missing")
	}
	if !snap.Online {
		t.Error("healthy transport should report online")
	}
}

func TestFetchStatusOffline(t *testing.T) {
	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer database.Close()

	snap, err := FetchStatus(database, &stubTransport{healthErr: errors.New("down")})
	if err != nil {
		t.Fatalf("FetchStatus failed: %v", err)
	}
	if snap.Online {
		t.Error("failing transport should report offline")
	}
	if snap.LastSyncedAt != nil {
		t.Error("last synced should be nil before any sync")
	}
}
