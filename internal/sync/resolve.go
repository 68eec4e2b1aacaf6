package sync

import (
	"github.com/marcus/taskpad/internal/models"
)

// Resolve picks the winner between a local and a server snapshot of the same
// task by last-writer-wins on updated_at. Equal timestamps go to the server;
// the tie-break must be deterministic so both sides converge.
func Resolve(local, server *models.Task) *models.Task {
	if local.UpdatedAt.After(server.UpdatedAt) {
		return local
	}
	return server
}
