package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shuttle/internal/logging"
	"shuttle/internal/queue"
)

// Start begins the background worker. It returns an error if the worker is
// already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates the worker and waits for it to exit. A job in flight runs
// to completion first.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item := m.claimNext()
		if item == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.pollInterval):
			}
			continue
		}

		m.process(ctx, item)
	}
}

// claimNext pops the queue head into Processing and marks it active. The
// returned pointer aliases store state: status/progress callbacks mutate it
// in place under the manager mutex, and SaveQueue persists those mutations.
func (m *Manager) claimNext() *queue.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.store.Head()
	if item == nil {
		return nil
	}
	now := time.Now().UTC()
	item.Status = queue.StatusProcessing
	item.StartedAt = &now
	item.Progress = "Starting..."
	m.active = item
	if err := m.store.SaveQueue(); err != nil {
		m.logger.Error("persist claim failed", logging.Error(err))
	}
	return item
}

func (m *Manager) process(ctx context.Context, item *queue.Item) {
	logger := m.logger.With(
		logging.String("item", item.ID),
		logging.String("operation", string(item.Operation)),
		logging.String("title", item.Subject.Title),
	)
	logger.Info("processing item")

	handler, ok := m.handlers.Lookup(item.Operation)
	var err error
	if !ok {
		err = fmt.Errorf("no handler registered for operation %q", item.Operation)
	} else {
		err = handler.Execute(ctx, item.Subject,
			func(status string) { m.updateItem(item, queue.Status(status), "") },
			func(progress string) { m.updateItem(item, "", progress) },
		)
	}
	m.finish(item, err, logger)
}

// updateItem is the locked re-entry path for handler callbacks. Each call
// flushes the store so listings never lag an acknowledged update.
func (m *Manager) updateItem(item *queue.Item, status queue.Status, progress string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status != "" {
		item.Status = status
	}
	if progress != "" {
		item.Progress = progress
	}
	if err := m.store.SaveQueue(); err != nil {
		m.logger.Error("persist item update failed", logging.Error(err))
	}
}

// finish converts the handler outcome into a terminal status, appends exactly
// one history record, and removes the item from the live queue.
func (m *Manager) finish(item *queue.Item, execErr error, logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	record := queue.HistoryRecord{
		Title:     item.Subject.Title,
		Operation: item.Operation,
		Timestamp: now,
	}
	if execErr != nil {
		item.Status = queue.StatusFailed
		item.FailedAt = &now
		item.Progress = execErr.Error()
		record.Success = false
		record.Error = execErr.Error()
		logger.Error("item failed", logging.Error(execErr))
	} else {
		item.Status = queue.StatusCompleted
		item.CompletedAt = &now
		item.Progress = "Completed"
		record.Success = true
		logger.Info("item completed")
	}

	if err := m.store.AddHistory(record); err != nil {
		m.logger.Error("persist history failed", logging.Error(err))
	}
	if err := m.store.Remove(item.ID); err != nil {
		m.logger.Error("persist removal failed", logging.Error(err))
	}
	m.active = nil
}
