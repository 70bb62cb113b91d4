package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/operations"
	"shuttle/internal/queue"
	"shuttle/internal/services"
)

// Precondition errors reported synchronously to enqueue/dequeue callers.
var (
	ErrDuplicateSubject = errors.New("subject already queued")
	ErrItemBusy         = errors.New("item is currently processing")
)

// Manager owns the persisted queue store and the single background worker.
// One mutex serializes every queue-state mutation, including the store write,
// across request handlers and the worker; it is the only lock in the system.
type Manager struct {
	cfg      *config.Config
	handlers operations.Registry
	logger   *slog.Logger

	pollInterval time.Duration

	mu     sync.Mutex
	store  *queue.Store
	active *queue.Item

	running bool
	cancel  func()
	wg      sync.WaitGroup
}

// NewManager constructs a workflow manager around an opened store.
func NewManager(cfg *config.Config, store *queue.Store, handlers operations.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	poll := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	return &Manager{
		cfg:          cfg,
		handlers:     handlers,
		logger:       logger,
		pollInterval: poll,
		store:        store,
	}
}

// Enqueue appends a pending item for the subject and persists it. A subject
// already in the live queue, or currently being processed, is rejected.
func (m *Manager) Enqueue(subject queue.Subject, operation queue.OperationType) (*queue.Item, error) {
	if _, ok := m.handlers.Lookup(operation); !ok {
		return nil, services.Wrap(services.ErrValidation, "enqueue",
			fmt.Sprintf("unknown operation type %q", operation), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.store.FindBySubject(subject.ID); existing != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateSubject, subject.Title, existing.Operation)
	}
	if m.active != nil && m.active.Subject.ID == subject.ID {
		return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateSubject, subject.Title, m.active.Operation)
	}

	item := queue.NewItem(subject, operation)
	if err := m.store.Append(item); err != nil {
		return nil, fmt.Errorf("persist enqueue: %w", err)
	}
	m.logger.Info("enqueued operation",
		logging.String("item", item.ID),
		logging.String("operation", string(operation)),
		logging.String("title", subject.Title),
	)
	return item.Clone(), nil
}

// Dequeue removes a pending item. The currently-processing item is rejected:
// its external processes cannot be cancelled, so forgetting it mid-flight
// would leave the outcome ambiguous.
func (m *Manager) Dequeue(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.ID == id {
		return fmt.Errorf("%w: %s", ErrItemBusy, id)
	}
	item := m.store.FindByID(id)
	if item == nil {
		return services.Wrap(services.ErrNotFound, "dequeue", fmt.Sprintf("no queue item %s", id), nil)
	}
	if item.Status == queue.StatusProcessing {
		return fmt.Errorf("%w: %s", ErrItemBusy, id)
	}
	if err := m.store.Remove(id); err != nil {
		return fmt.Errorf("persist dequeue: %w", err)
	}
	m.logger.Info("dequeued item", logging.String("item", id))
	return nil
}

// Clear unconditionally empties the live queue and returns the count removed.
// An in-flight external process keeps running on its own; only the
// bookkeeping is forgotten.
func (m *Manager) Clear() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.store.Clear()
	if err != nil {
		return removed, fmt.Errorf("persist clear: %w", err)
	}
	m.logger.Info("cleared queue", logging.Int("removed", removed))
	return removed, nil
}

// ListQueue returns a snapshot of the live queue in FIFO order.
func (m *Manager) ListQueue() []*queue.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Items()
}

// ListHistory returns a snapshot of the history ring, most recent first.
func (m *Manager) ListHistory() []queue.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.History()
}

// Active returns a copy of the currently-processing item, or nil when idle.
func (m *Manager) Active() *queue.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Clone()
}

// Running reports whether the background worker is started.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
