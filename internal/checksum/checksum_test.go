package checksum

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDigestIsStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(path, []byte("same bytes every time"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := File(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	second, err := File(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	if first != second {
		t.Fatalf("digest not stable: %q vs %q", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("expected 128-bit hex digest, got %q", first)
	}
}

func TestFileDigestDiffersOnContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mkv")
	b := filepath.Join(dir, "b.mkv")
	if err := os.WriteFile(a, []byte("content a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("content b"), 0o644); err != nil {
		t.Fatal(err)
	}

	da, err := File(context.Background(), a, nil)
	if err != nil {
		t.Fatal(err)
	}
	db, err := File(context.Background(), b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if da == db {
		t.Fatal("different content produced identical digests")
	}
}

func TestFileReportsProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	var percents []int
	if _, err := File(context.Background(), path, func(p int) {
		percents = append(percents, p)
	}); err != nil {
		t.Fatal(err)
	}
	if len(percents) == 0 {
		t.Fatal("expected progress callbacks")
	}
	if last := percents[len(percents)-1]; last != 100 {
		t.Fatalf("expected final progress 100, got %d", last)
	}
}

func TestFileHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := File(ctx, path, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFileMissingPath(t *testing.T) {
	if _, err := File(context.Background(), filepath.Join(t.TempDir(), "absent"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
