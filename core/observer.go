package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultHistoryCapacity = 100

// RunRecord captures one finished requestor inside a run session.
type RunRecord struct {
	SessionID  uuid.UUID
	Name       string
	Index      int
	Outcome    string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Panicked   bool
}

// RunObserver is notified of every finished requestor.
// Implementations must be safe for concurrent use.
type RunObserver interface {
	ObserveRequestor(record RunRecord)
}

// History is a bounded RunObserver keeping the most recent records.
type History struct {
	mu    sync.Mutex
	items []RunRecord
	head  int
	count int
}

// NewHistory creates a History holding up to capacity records.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &History{items: make([]RunRecord, capacity)}
}

func (h *History) ObserveRequestor(record RunRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (h *History) Recent(limit int) []RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]RunRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

// Last returns the newest record.
func (h *History) Last() (RunRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return RunRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}
