package queue

import (
	"fmt"
	"strings"
	"time"
)

// OperationType tags a queue item with the handler that should process it.
type OperationType string

const (
	OperationCopy    OperationType = "copy"
	OperationConvert OperationType = "convert"
)

// ParseOperationType converts a string into a known OperationType.
func ParseOperationType(value string) (OperationType, bool) {
	normalized := OperationType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case OperationCopy, OperationConvert:
		return normalized, true
	default:
		return "", false
	}
}

// Status represents the lifecycle of a queue item. Only the four values below
// are compiled in; handlers write free-form sub-states (copying, verifying,
// updating, ...) so new operations need no queue changes.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether a status ends an item's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Subject is the media item a queue operation acts on.
type Subject struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Item represents one job, pending or in flight.
type Item struct {
	ID          string        `json:"id"`
	Subject     Subject       `json:"subject"`
	Operation   OperationType `json:"operation"`
	Status      Status        `json:"status"`
	Progress    string        `json:"progress"`
	AddedAt     time.Time     `json:"added_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	FailedAt    *time.Time    `json:"failed_at,omitempty"`
}

// NewItem builds a pending item. The identifier combines the subject, the
// operation, and the enqueue instant, which is unique in practice without a
// central counter.
func NewItem(subject Subject, operation OperationType) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:        fmt.Sprintf("%d_%s_%d", subject.ID, operation, now.UnixNano()),
		Subject:   subject,
		Operation: operation,
		Status:    StatusPending,
		Progress:  "Waiting in queue...",
		AddedAt:   now,
	}
}

// Clone returns a deep copy so snapshots stay stable while the worker mutates
// the live item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	cp.StartedAt = cloneTime(i.StartedAt)
	cp.CompletedAt = cloneTime(i.CompletedAt)
	cp.FailedAt = cloneTime(i.FailedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// HistoryRecord is one completed or failed job. Records are append-only and
// never mutated after creation.
type HistoryRecord struct {
	Title     string        `json:"title"`
	Operation OperationType `json:"operation"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}
