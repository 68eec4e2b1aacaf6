package sync

import (
	"github.com/marcus/taskpad/internal/models"
)

// GroupByTask partitions queue items by task id, preserving each group's
// created_at order and the order in which tasks first appear. Grouping makes
// batch boundaries safe: items from different tasks may be reordered across
// batches, but items of the same task must never be split out of order.
func GroupByTask(items []models.QueueItem) [][]models.QueueItem {
	index := make(map[string]int)
	var groups [][]models.QueueItem
	for _, item := range items {
		i, ok := index[item.TaskID]
		if !ok {
			i = len(groups)
			index[item.TaskID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], item)
	}
	return groups
}

// BuildBatches packs grouped items into batches of at most size items. Groups
// are walked in order and their members appended to the current batch; a new
// batch starts when the cap is reached. A group larger than the cap spills
// into following batches, keeping its internal order.
func BuildBatches(groups [][]models.QueueItem, size int) [][]models.QueueItem {
	if size <= 0 {
		size = 1
	}

	var batches [][]models.QueueItem
	var current []models.QueueItem
	for _, group := range groups {
		for _, item := range group {
			if len(current) == size {
				batches = append(batches, current)
				current = nil
			}
			current = append(current, item)
		}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
