package monitor

import (
	"context"
	"time"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
	"github.com/marcus/taskpad/internal/sync"
)

// StatusSnapshot is one refresh of the operational dashboard data.
type StatusSnapshot struct {
	Pending      int64
	NeedingSync  []models.Task
	DeadLetters  []models.DeadLetter
	LastSyncedAt *time.Time
	Online       bool
	FetchedAt    time.Time
}

// FetchStatus collects the status surface in one pass. The connectivity probe
// is the only network call; everything else reads the local store.
func FetchStatus(database *db.DB, client sync.Transport) (*StatusSnapshot, error) {
	snap := &StatusSnapshot{FetchedAt: time.Now()}

	pending, err := database.CountPendingItems()
	if err != nil {
		return nil, err
	}
	snap.Pending = pending

	snap.NeedingSync, err = database.ListNeedingSync()
	if err != nil {
		return nil, err
	}

	snap.DeadLetters, err = database.ListDeadLetters()
	if err != nil {
		return nil, err
	}

	snap.LastSyncedAt, err = database.LastSyncedAt()
	if err != nil {
		return nil, err
	}

	snap.Online = client.Health(context.Background()) == nil

	return snap, nil
}
