package db

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const idPrefix = "tk-"

// NormalizeTaskID ensures a task ID has the tk- prefix
// Accepts bare hex IDs like "abc123" and returns "tk-abc123"
func NormalizeTaskID(id string) string {
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, idPrefix) {
		return idPrefix + id
	}
	return id
}

// generateID generates a unique client-side task ID
func generateID() (string, error) {
	bytes := make([]byte, 4) // 8 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return idPrefix + hex.EncodeToString(bytes), nil
}
