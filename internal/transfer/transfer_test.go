package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/config"
	"shuttle/internal/services"
)

func testTools() config.Tools {
	return config.Default().Tools
}

// fakeExecutor stands in for the ionice/nice/rsync pipeline. It copies the
// source to the destination, optionally corrupting the written bytes.
type fakeExecutor struct {
	corrupt bool
	fail    bool
	lines   []string
	calls   int
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.calls++
	if f.fail {
		return errors.New("rsync exited with status 23")
	}
	src := args[len(args)-2]
	dst := args[len(args)-1]
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if f.corrupt {
		data = append(data, "flipped bits"...)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	for _, line := range f.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSafeCopyForeground(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fast", "Movie A", "movie.mkv")
	dst := filepath.Join(dir, "slow", "Movie A", "movie.mkv")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, src, "movie bytes")

	copier := NewCopier(testTools(), nil)
	if err := copier.SafeCopy(context.Background(), src, dst, Options{}); err != nil {
		t.Fatalf("SafeCopy returned error: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "movie bytes" {
		t.Fatalf("destination content mismatch: %q", got)
	}
	orig, err := os.ReadFile(src)
	if err != nil || string(orig) != "movie bytes" {
		t.Fatalf("source mutated: %q %v", orig, err)
	}
}

func TestSafeCopyBackgroundRelaysProgress(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.mkv")
	dst := filepath.Join(dir, "out", "movie.mkv")
	writeFile(t, src, "movie bytes")

	exec := &fakeExecutor{lines: []string{"1,024  50%  12.3MB/s"}}
	copier := NewCopier(testTools(), nil, WithExecutor(exec))

	var messages []string
	opts := Options{BackgroundPriority: true, Progress: func(m string) { messages = append(messages, m) }}
	if err := copier.SafeCopy(context.Background(), src, dst, opts); err != nil {
		t.Fatalf("SafeCopy returned error: %v", err)
	}
	if exec.calls != 1 {
		t.Fatalf("expected one rsync invocation, got %d", exec.calls)
	}

	var sawCopyLine bool
	for _, m := range messages {
		if strings.HasPrefix(m, "Copying: ") && strings.Contains(m, "50%") {
			sawCopyLine = true
		}
	}
	if !sawCopyLine {
		t.Fatalf("expected relayed rsync progress, got %v", messages)
	}
}

func TestSafeCopyCorruptionRemovesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.mkv")
	dst := filepath.Join(dir, "out", "movie.mkv")
	writeFile(t, src, "movie bytes")

	copier := NewCopier(testTools(), nil, WithExecutor(&fakeExecutor{corrupt: true}))
	err := copier.SafeCopy(context.Background(), src, dst, Options{BackgroundPriority: true})
	if !errors.Is(err, services.ErrCorruption) {
		t.Fatalf("expected corruption error, got %v", err)
	}
	if _, statErr := os.Stat(dst); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected corrupted destination removed, stat: %v", statErr)
	}
}

func TestSafeCopyToolFailureLeavesNoDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.mkv")
	dst := filepath.Join(dir, "out", "movie.mkv")
	writeFile(t, src, "movie bytes")

	copier := NewCopier(testTools(), nil, WithExecutor(&fakeExecutor{fail: true}))
	err := copier.SafeCopy(context.Background(), src, dst, Options{BackgroundPriority: true})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, statErr := os.Stat(dst); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no destination, stat: %v", statErr)
	}
}

func TestSafeReplaceCommits(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "movie.mkv")
	next := filepath.Join(dir, "remuxed.mkv")
	writeFile(t, orig, "old container")
	writeFile(t, next, "new container")
	if err := os.Chmod(orig, 0o640); err != nil {
		t.Fatal(err)
	}

	copier := NewCopier(testTools(), nil)
	if err := copier.SafeReplace(context.Background(), orig, next, Options{}); err != nil {
		t.Fatalf("SafeReplace returned error: %v", err)
	}

	got, err := os.ReadFile(orig)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new container" {
		t.Fatalf("content not replaced: %q", got)
	}
	if _, statErr := os.Stat(orig + ".backup"); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("backup sibling survived: %v", statErr)
	}
	info, err := os.Stat(orig)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("permissions not restored: %o", info.Mode().Perm())
	}
}

func TestSafeReplaceCorruptionRestoresOriginal(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "movie.mkv")
	next := filepath.Join(dir, "remuxed.mkv")
	writeFile(t, orig, "old container")
	writeFile(t, next, "new container")

	copier := NewCopier(testTools(), nil, WithExecutor(&fakeExecutor{corrupt: true}))
	err := copier.SafeReplace(context.Background(), orig, next, Options{BackgroundPriority: true})
	if !errors.Is(err, services.ErrCorruption) {
		t.Fatalf("expected corruption error, got %v", err)
	}

	got, readErr := os.ReadFile(orig)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(got) != "old container" {
		t.Fatalf("original not restored: %q", got)
	}
	if _, statErr := os.Stat(orig + ".backup"); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("backup sibling survived: %v", statErr)
	}
}

func TestSafeReplaceCopyFailureRestoresOriginal(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "movie.mkv")
	next := filepath.Join(dir, "remuxed.mkv")
	writeFile(t, orig, "old container")
	writeFile(t, next, "new container")

	copier := NewCopier(testTools(), nil, WithExecutor(&fakeExecutor{fail: true}))
	err := copier.SafeReplace(context.Background(), orig, next, Options{BackgroundPriority: true})
	if err == nil {
		t.Fatal("expected error")
	}

	got, readErr := os.ReadFile(orig)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(got) != "old container" {
		t.Fatalf("original not restored: %q", got)
	}
}
