package api

import (
	"time"

	"shuttle/internal/queue"
)

// Subject mirrors queue.Subject on the wire.
type Subject struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// QueueItem is the wire form of a queue item.
type QueueItem struct {
	ID          string     `json:"id"`
	Subject     Subject    `json:"subject"`
	Operation   string     `json:"operation"`
	Status      string     `json:"status"`
	Progress    string     `json:"progress"`
	AddedAt     time.Time  `json:"added_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// HistoryRecord is the wire form of a finished job record.
type HistoryRecord struct {
	Title     string    `json:"title"`
	Operation string    `json:"operation"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// EnqueueRequest asks the daemon to queue one operation.
type EnqueueRequest struct {
	Subject   Subject `json:"subject"`
	Operation string  `json:"operation"`
}

// QueueListResponse carries the live queue snapshot.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse carries a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// HistoryResponse carries the history ring, most recent first.
type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

// ClearResponse reports how many items a clear removed.
type ClearResponse struct {
	Removed int `json:"removed"`
}

// PreflightResult is the wire form of one readiness check.
type PreflightResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail"`
}

// DaemonStatus is the /api/status payload.
type DaemonStatus struct {
	Running       bool              `json:"running"`
	PID           int               `json:"pid"`
	QueueFilePath string            `json:"queue_file_path"`
	LockFilePath  string            `json:"lock_file_path"`
	QueueLength   int               `json:"queue_length"`
	Active        *QueueItem        `json:"active,omitempty"`
	Preflight     []PreflightResult `json:"preflight,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromItem converts a queue item to its wire form.
func FromItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID: item.ID,
		Subject: Subject{
			ID:    item.Subject.ID,
			Title: item.Subject.Title,
			Path:  item.Subject.Path,
		},
		Operation:   string(item.Operation),
		Status:      string(item.Status),
		Progress:    item.Progress,
		AddedAt:     item.AddedAt,
		StartedAt:   item.StartedAt,
		CompletedAt: item.CompletedAt,
		FailedAt:    item.FailedAt,
	}
}

// FromItems converts a queue snapshot to its wire form.
func FromItems(items []*queue.Item) []QueueItem {
	converted := make([]QueueItem, 0, len(items))
	for _, item := range items {
		converted = append(converted, FromItem(item))
	}
	return converted
}

// FromHistory converts history records to their wire form.
func FromHistory(records []queue.HistoryRecord) []HistoryRecord {
	converted := make([]HistoryRecord, 0, len(records))
	for _, record := range records {
		converted = append(converted, HistoryRecord{
			Title:     record.Title,
			Operation: string(record.Operation),
			Success:   record.Success,
			Timestamp: record.Timestamp,
			Error:     record.Error,
		})
	}
	return converted
}
