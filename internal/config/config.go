package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	FastRoot string `toml:"fast_root"`
	SlowRoot string `toml:"slow_root"`
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	TempDir  string `toml:"temp_dir"`
	APIBind  string `toml:"api_bind"`
}

// Radarr contains configuration for the media catalog API.
type Radarr struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Tools names the external executables shuttle shells out to.
type Tools struct {
	Rsync    string `toml:"rsync"`
	FFmpeg   string `toml:"ffmpeg"`
	FFprobe  string `toml:"ffprobe"`
	MKVMerge string `toml:"mkvmerge"`
	Ionice   string `toml:"ionice"`
	Nice     string `toml:"nice"`
}

// Convert contains the audio conversion policy.
type Convert struct {
	SourceCodec      string `toml:"source_codec"`
	SourceLayout     string `toml:"source_layout"`
	TargetCodec      string `toml:"target_codec"`
	TargetLayout     string `toml:"target_layout"`
	CompressionLevel int    `toml:"compression_level"`
	TrackTitle       string `toml:"track_title"`
	TrackLanguage    string `toml:"track_language"`
}

// Workflow contains daemon timing and queue bookkeeping settings.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HistoryLimit      int `toml:"history_limit"`
}

// Verify contains configuration for the background integrity scanner.
type Verify struct {
	Enabled bool   `toml:"enabled"`
	Root    string `toml:"root"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shuttle.
//
// Configuration sections by subsystem:
//   - Paths: storage tier roots, state directories, API bind address
//   - Radarr: catalog connection used after successful transforms
//   - Tools: external executable names/paths
//   - Convert: source/target audio codec policy
//   - Workflow: worker polling interval and history bound
//   - Verify: periodic integrity re-scan settings
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Radarr   Radarr   `toml:"radarr"`
	Tools    Tools    `toml:"tools"`
	Convert  Convert  `toml:"convert"`
	Workflow Workflow `toml:"workflow"`
	Verify   Verify   `toml:"verify"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shuttle/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shuttle.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// tier roots are created on a best-effort basis so the daemon can start while
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.FastRoot, c.Paths.SlowRoot} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// QueueFilePath returns the JSON document holding the live queue.
func (c *Config) QueueFilePath() string {
	return filepath.Join(c.Paths.DataDir, "queue.json")
}

// HistoryFilePath returns the JSON document holding the bounded history ring.
func (c *Config) HistoryFilePath() string {
	return filepath.Join(c.Paths.DataDir, "history.json")
}

// VerifyDBPath returns the SQLite database tracking integrity scan state.
func (c *Config) VerifyDBPath() string {
	return filepath.Join(c.Paths.DataDir, "verify.db")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
