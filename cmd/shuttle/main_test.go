package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shuttle/internal/api"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeTestConfig produces a minimal valid configuration file so commands can
// get past config loading.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	content := `
[paths]
fast_root = "` + t.TempDir() + `"
slow_root = "` + t.TempDir() + `"
data_dir = "` + t.TempDir() + `"
log_dir = "` + t.TempDir() + `"

[radarr]
host = "127.0.0.1"
api_key = "test-key"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQueueListRendersItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/queue" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		resp := api.QueueListResponse{Items: []api.QueueItem{{
			ID:        "42_copy_1",
			Subject:   api.Subject{ID: 42, Title: "Movie A", Path: "/fast/a.mkv"},
			Operation: "copy",
			Status:    "pending",
			Progress:  "Waiting in queue...",
			AddedAt:   time.Now(),
		}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	out, err := runCommand(t, "queue", "list", "--addr", addr, "--config", writeTestConfig(t))
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Movie A") || !strings.Contains(out, "copy") {
		t.Errorf("output missing item fields:\n%s", out)
	}
}

func TestQueueAddSendsEnqueueRequest(t *testing.T) {
	var got api.EnqueueRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/queue" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.QueueItemResponse{Item: api.QueueItem{
			ID:        "42_copy_1",
			Subject:   got.Subject,
			Operation: got.Operation,
		}})
	}))
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	out, err := runCommand(t, "queue", "add", "copy",
		"--addr", addr,
		"--config", writeTestConfig(t),
		"--id", "42",
		"--title", "Movie A",
		"--path", "/fast/Movie A/Movie A.mkv",
	)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if got.Subject.ID != 42 || got.Operation != "copy" {
		t.Errorf("request = %+v, want subject 42 copy", got)
	}
	if !strings.Contains(out, "Queued copy of Movie A") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestQueueAddRejectsUnknownOperation(t *testing.T) {
	_, err := runCommand(t, "queue", "add", "teleport", "--path", "/fast/a.mkv", "--config", writeTestConfig(t))
	if err == nil || !strings.Contains(err.Error(), "unknown operation") {
		t.Fatalf("err = %v, want unknown operation", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output should name the target path:\n%s", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("sample config missing: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Error("sample config should contain a [paths] section")
	}

	// Second init without --overwrite must refuse.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when target exists")
	}
}
