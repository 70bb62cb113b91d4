package workflow

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/operations"
	"shuttle/internal/queue"
	"shuttle/internal/services"
	"shuttle/internal/transfer"
)

// copyExecutor stands in for the ionice/nice/rsync pipeline by copying the
// source (second-to-last argument) to the destination (last argument).
type copyExecutor struct{}

func (copyExecutor) Run(_ context.Context, _ string, args []string, onLine func(string)) error {
	if len(args) < 2 {
		return errors.New("missing src/dst arguments")
	}
	src, dst := args[len(args)-2], args[len(args)-1]
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if onLine != nil {
		onLine("100%")
	}
	return nil
}

type recordingCatalog struct {
	locations []string
	rescans   []int64
}

func (c *recordingCatalog) UpdateLocation(_ context.Context, subjectID int64, newPath, newRootLabel string) error {
	c.locations = append(c.locations, newPath)
	return nil
}

func (c *recordingCatalog) Rescan(_ context.Context, subjectID int64) error {
	c.rescans = append(c.rescans, subjectID)
	return nil
}

// stubHandler lets tests control handler duration and outcome.
type stubHandler struct {
	started chan string
	release chan struct{}
	err     error
}

func (h *stubHandler) Execute(_ context.Context, subject queue.Subject, updateStatus operations.UpdateStatusFunc, updateProgress operations.UpdateProgressFunc) error {
	if h.started != nil {
		h.started <- subject.Title
	}
	updateStatus("copying")
	updateProgress("working...")
	if h.release != nil {
		<-h.release
	}
	return h.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.HistoryLimit = 10
	return &cfg
}

func openTestStore(t *testing.T) *queue.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := queue.OpenStore(filepath.Join(dir, "queue.json"), filepath.Join(dir, "history.json"), 10)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestManagerProcessesCopyJob(t *testing.T) {
	fastRoot := t.TempDir()
	slowRoot := t.TempDir()
	src := filepath.Join(fastRoot, "Movie A", "Movie A.mkv")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("feature presentation"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	copier := transfer.NewCopier(cfg.Tools, nil, transfer.WithExecutor(copyExecutor{}))
	catalog := &recordingCatalog{}
	handlers := operations.Registry{
		queue.OperationCopy: operations.NewCopyHandler(fastRoot, slowRoot, copier, catalog, nil),
	}
	manager := NewManager(cfg, openTestStore(t), handlers, nil)

	subject := queue.Subject{ID: 42, Title: "Movie A", Path: src}
	if _, err := manager.Enqueue(subject, queue.OperationCopy); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer manager.Stop()

	waitFor(t, 5*time.Second, func() bool { return len(manager.ListHistory()) == 1 })

	dst := filepath.Join(slowRoot, "Movie A", "Movie A.mkv")
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(data) != "feature presentation" {
		t.Error("destination content mismatch")
	}

	record := manager.ListHistory()[0]
	if record.Title != "Movie A" || record.Operation != queue.OperationCopy || !record.Success {
		t.Errorf("history record = %+v, want successful copy of Movie A", record)
	}
	if len(manager.ListQueue()) != 0 {
		t.Error("live queue should be empty after completion")
	}
	if len(catalog.rescans) != 1 || catalog.rescans[0] != 42 {
		t.Errorf("catalog rescans = %v, want [42]", catalog.rescans)
	}
}

func TestManagerRecordsFailure(t *testing.T) {
	cfg := testConfig(t)
	handlers := operations.Registry{
		queue.OperationCopy: &stubHandler{err: errors.New("disk on fire")},
	}
	manager := NewManager(cfg, openTestStore(t), handlers, nil)

	if _, err := manager.Enqueue(queue.Subject{ID: 7, Title: "Movie B", Path: "/fast/b.mkv"}, queue.OperationCopy); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer manager.Stop()

	waitFor(t, 5*time.Second, func() bool { return len(manager.ListHistory()) == 1 })

	record := manager.ListHistory()[0]
	if record.Success {
		t.Error("record should be a failure")
	}
	if record.Error == "" {
		t.Error("failure record should carry the error text")
	}
	if len(manager.ListQueue()) != 0 {
		t.Error("failed item should be removed from the live queue")
	}
}

func TestEnqueueRejectsDuplicateSubject(t *testing.T) {
	cfg := testConfig(t)
	handlers := operations.Registry{queue.OperationCopy: &stubHandler{}}
	manager := NewManager(cfg, openTestStore(t), handlers, nil)

	subject := queue.Subject{ID: 42, Title: "Movie A", Path: "/fast/a.mkv"}
	item, err := manager.Enqueue(subject, queue.OperationCopy)
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if _, err := manager.Enqueue(subject, queue.OperationCopy); !errors.Is(err, ErrDuplicateSubject) {
		t.Fatalf("second enqueue error = %v, want ErrDuplicateSubject", err)
	}

	// After removal the same subject is accepted again.
	if err := manager.Dequeue(item.ID); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if _, err := manager.Enqueue(subject, queue.OperationCopy); err != nil {
		t.Fatalf("re-enqueue after removal: %v", err)
	}
}

func TestEnqueueRejectsUnknownOperation(t *testing.T) {
	manager := NewManager(testConfig(t), openTestStore(t), operations.Registry{}, nil)

	_, err := manager.Enqueue(queue.Subject{ID: 1, Title: "X"}, queue.OperationType("sideways"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestDequeueRejectsProcessingItem(t *testing.T) {
	cfg := testConfig(t)
	handler := &stubHandler{started: make(chan string), release: make(chan struct{})}
	handlers := operations.Registry{queue.OperationConvert: handler}
	manager := NewManager(cfg, openTestStore(t), handlers, nil)

	item, err := manager.Enqueue(queue.Subject{ID: 9, Title: "Movie C", Path: "/slow/c.mkv"}, queue.OperationConvert)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer manager.Stop()

	<-handler.started

	if err := manager.Dequeue(item.ID); !errors.Is(err, ErrItemBusy) {
		t.Errorf("dequeue of active item error = %v, want ErrItemBusy", err)
	}
	if err := manager.Dequeue("missing"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("dequeue of unknown item error = %v, want not-found", err)
	}
	if _, err := manager.Enqueue(queue.Subject{ID: 9, Title: "Movie C"}, queue.OperationConvert); !errors.Is(err, ErrDuplicateSubject) {
		t.Errorf("enqueue of active subject error = %v, want ErrDuplicateSubject", err)
	}

	active := manager.Active()
	if active == nil || active.ID != item.ID || active.Status != queue.StatusProcessing {
		t.Errorf("active item = %+v, want processing %s", active, item.ID)
	}

	close(handler.release)
	waitFor(t, 5*time.Second, func() bool { return len(manager.ListHistory()) == 1 })
}

func TestClearEmptiesQueue(t *testing.T) {
	cfg := testConfig(t)
	handlers := operations.Registry{queue.OperationCopy: &stubHandler{}}
	manager := NewManager(cfg, openTestStore(t), handlers, nil)

	for i := int64(1); i <= 3; i++ {
		if _, err := manager.Enqueue(queue.Subject{ID: i, Title: "Movie"}, queue.OperationCopy); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	removed, err := manager.Clear()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if len(manager.ListQueue()) != 0 {
		t.Error("queue should be empty after clear")
	}
}

func TestItemsProcessInEnqueueOrder(t *testing.T) {
	cfg := testConfig(t)
	handler := &stubHandler{started: make(chan string, 3)}
	handlers := operations.Registry{queue.OperationCopy: handler}
	manager := NewManager(cfg, openTestStore(t), handlers, nil)

	titles := []string{"First", "Second", "Third"}
	for i, title := range titles {
		if _, err := manager.Enqueue(queue.Subject{ID: int64(i + 1), Title: title}, queue.OperationCopy); err != nil {
			t.Fatalf("enqueue %s: %v", title, err)
		}
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer manager.Stop()

	for _, want := range titles {
		select {
		case got := <-handler.started:
			if got != want {
				t.Fatalf("processed %s, want %s", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
