package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shuttle/internal/config"
)

type stubChecker struct {
	err    error
	called []string
}

func (c *stubChecker) Check(_ context.Context, path string) error {
	c.called = append(c.called, path)
	return c.err
}

func openScannerTest(t *testing.T, checker DecodeChecker) (*Scanner, *Store, string) {
	t.Helper()
	root := t.TempDir()
	store, err := OpenStore(filepath.Join(t.TempDir(), "verify.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	scanner := NewScanner(config.Verify{Enabled: true, Root: root}, config.Tools{}, store, nil, WithDecodeChecker(checker))
	return scanner, store, root
}

func writeMedia(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScannerBaselinesNewFiles(t *testing.T) {
	checker := &stubChecker{}
	scanner, store, root := openScannerTest(t, checker)
	path := writeMedia(t, root, "movie.mkv", "pristine content")
	writeMedia(t, root, "notes.txt", "not media")

	report, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Scanned != 1 || report.Baseline != 1 {
		t.Errorf("report = %+v, want 1 scanned 1 baseline", report)
	}
	if len(checker.called) != 0 {
		t.Error("baseline pass should not deep decode")
	}

	state, known, err := store.Get(context.Background(), path)
	if err != nil || !known {
		t.Fatalf("record missing: known=%v err=%v", known, err)
	}
	if state.Status != StatusOK || state.Digest == "" {
		t.Errorf("state = %+v, want ok with digest", state)
	}
}

func TestScannerVerifiesUnchangedFiles(t *testing.T) {
	scanner, _, root := openScannerTest(t, &stubChecker{})
	writeMedia(t, root, "movie.mkv", "pristine content")

	if _, err := scanner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Verified != 1 || report.Corrupt != 0 {
		t.Errorf("report = %+v, want 1 verified", report)
	}
}

func TestScannerFlagsSilentCorruption(t *testing.T) {
	checker := &stubChecker{err: errors.New("frame CRC mismatch")}
	scanner, store, root := openScannerTest(t, checker)
	path := writeMedia(t, root, "movie.mkv", "pristine content")

	if _, err := scanner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Flip bytes while preserving size and mtime, the signature of silent
	// corruption.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("PRISTINE CONTENT"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}

	report, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Corrupt != 1 {
		t.Fatalf("report = %+v, want 1 corrupt", report)
	}
	if len(checker.called) != 1 {
		t.Errorf("deep decode calls = %d, want 1", len(checker.called))
	}

	state, _, err := store.Get(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != StatusCorrupt || state.Detail == "" {
		t.Errorf("state = %+v, want corrupt with detail", state)
	}

	flagged, err := store.Flagged(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(flagged) != 1 || flagged[0].Path != path {
		t.Errorf("flagged = %+v, want [%s]", flagged, path)
	}
}

func TestScannerRebaselinesModifiedFiles(t *testing.T) {
	scanner, store, root := openScannerTest(t, &stubChecker{})
	path := writeMedia(t, root, "movie.mkv", "original cut")

	if _, err := scanner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Legitimate rewrite: size change means a new baseline, not corruption.
	if err := os.WriteFile(path, []byte("directors cut with extra scenes"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Baseline != 1 || report.Corrupt != 0 {
		t.Errorf("report = %+v, want rebaseline without corruption", report)
	}

	summary, err := store.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 || summary.OK != 1 {
		t.Errorf("summary = %+v, want one ok record", summary)
	}
}

func TestScannerStopsOnCancel(t *testing.T) {
	scanner, _, root := openScannerTest(t, &stubChecker{})
	writeMedia(t, root, "movie.mkv", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
