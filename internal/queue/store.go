package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists the live queue and the bounded history ring, each as a JSON
// document rewritten in full after every mutation. It performs no locking of
// its own: the workflow manager owns the store and serializes all access.
type Store struct {
	queuePath    string
	historyPath  string
	historyLimit int

	items   []*Item
	history []HistoryRecord
}

// OpenStore loads (or initializes) the queue and history documents.
func OpenStore(queuePath, historyPath string, historyLimit int) (*Store, error) {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	store := &Store{
		queuePath:    queuePath,
		historyPath:  historyPath,
		historyLimit: historyLimit,
	}
	if err := loadJSON(queuePath, &store.items); err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	if err := loadJSON(historyPath, &store.history); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(store.history) > historyLimit {
		store.history = store.history[:historyLimit]
	}
	return store, nil
}

// Items returns a snapshot of the live queue in FIFO order.
func (s *Store) Items() []*Item {
	snapshot := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		snapshot = append(snapshot, item.Clone())
	}
	return snapshot
}

// History returns a snapshot of the history ring, most recent first.
func (s *Store) History() []HistoryRecord {
	snapshot := make([]HistoryRecord, len(s.history))
	copy(snapshot, s.history)
	return snapshot
}

// Len reports the number of live items.
func (s *Store) Len() int {
	return len(s.items)
}

// Head returns the oldest live item, or nil when the queue is empty. The
// returned pointer aliases store state so the worker can mutate it in place;
// SaveQueue persists such mutations.
func (s *Store) Head() *Item {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[0]
}

// FindBySubject returns the live item for a subject identifier, or nil.
func (s *Store) FindBySubject(subjectID int64) *Item {
	for _, item := range s.items {
		if item.Subject.ID == subjectID {
			return item
		}
	}
	return nil
}

// FindByID returns the live item with the given identifier, or nil.
func (s *Store) FindByID(id string) *Item {
	for _, item := range s.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Append adds an item to the tail of the live queue and persists.
func (s *Store) Append(item *Item) error {
	s.items = append(s.items, item)
	return s.SaveQueue()
}

// Remove deletes the item with the given identifier and persists. Removing an
// unknown identifier is not an error.
func (s *Store) Remove(id string) error {
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
	return s.SaveQueue()
}

// Clear empties the live queue, persists, and returns the number removed.
func (s *Store) Clear() (int, error) {
	removed := len(s.items)
	s.items = nil
	return removed, s.SaveQueue()
}

// AddHistory prepends a record, trims the ring to its bound, and persists.
func (s *Store) AddHistory(record HistoryRecord) error {
	s.history = append([]HistoryRecord{record}, s.history...)
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
	return s.SaveHistory()
}

// SaveQueue rewrites the live queue document.
func (s *Store) SaveQueue() error {
	return writeJSON(s.queuePath, s.items)
}

// SaveHistory rewrites the history document.
func (s *Store) SaveHistory() error {
	return writeJSON(s.historyPath, s.history)
}

func loadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}

// writeJSON rewrites the whole document via a sibling temp file and rename, so
// a crash mid-write can lose at most the mutation being written.
func writeJSON(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
