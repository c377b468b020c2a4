package journal

import (
	"sync"

	"github.com/contre95/snapshotd/src/features/renaming"
)

// InMemoryJournal is a bounded, in-memory implementation of the Recorder
// interface. Nothing is persisted; the record exists for the status server
// and notifications only.
type InMemoryJournal struct {
	mu       sync.Mutex
	capacity int
	results  []renaming.Result
}

// NewInMemoryJournal creates a journal keeping at most capacity results.
func NewInMemoryJournal(capacity int) renaming.Recorder {
	if capacity <= 0 {
		capacity = 100
	}
	return &InMemoryJournal{capacity: capacity}
}

// Record appends a result, evicting the oldest when full.
func (j *InMemoryJournal) Record(result renaming.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.results = append(j.results, result)
	if len(j.results) > j.capacity {
		j.results = j.results[len(j.results)-j.capacity:]
	}
}

// Recent returns up to limit results, newest first.
func (j *InMemoryJournal) Recent(limit int) []renaming.Result {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 || limit > len(j.results) {
		limit = len(j.results)
	}
	out := make([]renaming.Result, 0, limit)
	for i := len(j.results) - 1; i >= len(j.results)-limit; i-- {
		out = append(out, j.results[i])
	}
	return out
}
