package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsPathsAndAppliesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := writeConfig(t, `
[paths]
fast_root = "~/fast"
slow_root = "~/slow"

[radarr]
host = "127.0.0.1"
api_key = "abc123"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: exists=%v path=%q", exists, resolved)
	}
	if cfg.Paths.FastRoot != filepath.Join(tempHome, "fast") {
		t.Fatalf("fast root not expanded: %q", cfg.Paths.FastRoot)
	}
	if cfg.Paths.SlowRoot != filepath.Join(tempHome, "slow") {
		t.Fatalf("slow root not expanded: %q", cfg.Paths.SlowRoot)
	}
	if cfg.Radarr.Port != 7878 {
		t.Fatalf("expected default radarr port, got %d", cfg.Radarr.Port)
	}
	if cfg.Workflow.HistoryLimit != 10 {
		t.Fatalf("expected default history limit, got %d", cfg.Workflow.HistoryLimit)
	}
	if cfg.Convert.SourceCodec != "dts" || cfg.Convert.TargetCodec != "flac" {
		t.Fatalf("unexpected convert defaults: %+v", cfg.Convert)
	}
	if cfg.Tools.Rsync != "rsync" || cfg.Tools.MKVMerge != "mkvmerge" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.TempDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected %q to exist: %v", dir, err)
		}
	}
}

func TestLoadUsesEnvAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RADARR_API_KEY", "env-key")

	path := writeConfig(t, `
[paths]
fast_root = "/mnt/fast"
slow_root = "/mnt/slow"

[radarr]
host = "radarr.local"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Radarr.APIKey != "env-key" {
		t.Fatalf("expected env API key, got %q", cfg.Radarr.APIKey)
	}
}

func TestLoadRejectsMissingTierRoots(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
[radarr]
host = "127.0.0.1"
api_key = "abc123"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "fast_root") {
		t.Fatalf("expected fast_root validation error, got %v", err)
	}
}

func TestLoadRejectsIdenticalRoots(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
[paths]
fast_root = "/mnt/media"
slow_root = "/mnt/media"

[radarr]
host = "127.0.0.1"
api_key = "abc123"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected differing-roots validation error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
[paths]
fast_root = "/mnt/fast"
slow_root = "/mnt/slow"

[radarr]
host = "127.0.0.1"
api_key = "abc123"

[logging]
format = "xml"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}
