package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"shuttle/internal/config"
)

// CheckDirectoryAccess verifies that the directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTools verifies that every configured external binary resolves on PATH.
// mkvmerge is optional: only convert jobs need it.
func CheckTools(tools config.Tools) []Result {
	requirements := []struct {
		name     string
		command  string
		optional bool
	}{
		{name: "rsync", command: tools.Rsync},
		{name: "ffmpeg", command: tools.FFmpeg},
		{name: "ffprobe", command: tools.FFprobe},
		{name: "ionice", command: tools.Ionice},
		{name: "nice", command: tools.Nice},
		{name: "mkvmerge", command: tools.MKVMerge, optional: true},
	}

	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		command := strings.TrimSpace(req.command)
		result := Result{Name: req.name, Optional: req.optional}
		switch {
		case command == "":
			result.Detail = "command not configured"
		default:
			if resolved, err := exec.LookPath(command); err != nil {
				result.Detail = fmt.Sprintf("binary %q not found", command)
			} else {
				result.Passed = true
				result.Detail = resolved
			}
		}
		results = append(results, result)
	}
	return results
}

// CheckRadarr verifies catalog connectivity and authentication.
func CheckRadarr(ctx context.Context, cfg config.Radarr) Result {
	const name = "Radarr"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d/api/v3/system/status", cfg.Host, cfg.Port)
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("X-Api-Key", strings.TrimSpace(cfg.APIKey))

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}
