package sync

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Checksum computes the transport-integrity token for a batch: hex MD5 over
// "<id>-<operation>-<task_id>" per item in submission order, joined with "|".
// This is a corruption hint for the server, not a security primitive.
func Checksum(items []SyncIntent) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%d-%s-%s", item.ID, item.Operation, item.TaskID)
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
