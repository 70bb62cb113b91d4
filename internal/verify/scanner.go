package verify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"shuttle/internal/checksum"
	"shuttle/internal/config"
	"shuttle/internal/logging"
)

// DecodeChecker performs a deep decode pass over a media file, returning an
// error when the decoder reports stream damage.
type DecodeChecker interface {
	Check(ctx context.Context, path string) error
}

type ffmpegChecker struct {
	binary string
}

func (c ffmpegChecker) Check(ctx context.Context, path string) error {
	binary := c.binary
	if binary == "" {
		binary = "ffmpeg"
	}
	// -xerror with err_detect explode makes ffmpeg exit non-zero on the
	// first decode error instead of papering over damaged frames.
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-xerror",
		"-err_detect", "explode",
		"-i", path,
		"-f", "null", "-",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("decode check: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

var mediaExtensions = map[string]bool{
	".mkv": true,
	".mp4": true,
	".m4v": true,
	".avi": true,
	".mov": true,
	".ts":  true,
}

// Report aggregates the outcome of one scan pass.
type Report struct {
	Scanned  int
	Baseline int
	Verified int
	Corrupt  int
	Errors   int
}

// Scanner walks a library root and re-verifies previously recorded files for
// silent corruption. New or modified files get a baseline digest; unchanged
// files are re-digested and compared, with a deep decode pass confirming any
// mismatch before the file is flagged.
type Scanner struct {
	root   string
	store  *Store
	check  DecodeChecker
	logger *slog.Logger
}

// ScannerOption configures optional Scanner behavior.
type ScannerOption func(*Scanner)

// WithDecodeChecker injects a custom decode checker (primarily for tests).
func WithDecodeChecker(check DecodeChecker) ScannerOption {
	return func(s *Scanner) {
		if check != nil {
			s.check = check
		}
	}
}

// NewScanner constructs a scanner for the configured root.
func NewScanner(verifyCfg config.Verify, tools config.Tools, store *Store, logger *slog.Logger, opts ...ScannerOption) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	scanner := &Scanner{
		root:   verifyCfg.Root,
		store:  store,
		check:  ffmpegChecker{binary: tools.FFmpeg},
		logger: logger,
	}
	for _, opt := range opts {
		opt(scanner)
	}
	return scanner
}

// Run performs one scan pass. Cancellation is cooperative: the walk stops at
// the next file boundary once ctx is done.
func (s *Scanner) Run(ctx context.Context) (Report, error) {
	var report Report
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !mediaExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		report.Scanned++
		if err := s.scanFile(ctx, path, entry, &report); err != nil {
			// A single unreadable file should not abort the pass.
			report.Errors++
			s.logger.Warn("scan file failed",
				logging.String("path", path),
				logging.Error(err),
			)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scan %s: %w", s.root, err)
	}
	s.logger.Info("scan pass complete",
		logging.Int("scanned", report.Scanned),
		logging.Int("baseline", report.Baseline),
		logging.Int("verified", report.Verified),
		logging.Int("corrupt", report.Corrupt),
		logging.Int("errors", report.Errors),
	)
	return report, nil
}

func (s *Scanner) scanFile(ctx context.Context, path string, entry fs.DirEntry, report *Report) error {
	info, err := entry.Info()
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	prev, known, err := s.store.Get(ctx, path)
	if err != nil {
		return err
	}

	digest, err := checksum.File(ctx, path, nil)
	if err != nil {
		return err
	}

	state := FileState{
		Path:        path,
		Digest:      digest,
		Size:        info.Size(),
		ModTime:     info.ModTime().UTC().Truncate(time.Second),
		LastChecked: now,
		Status:      StatusOK,
	}

	unchanged := known && prev.Size == state.Size && prev.ModTime.Equal(state.ModTime)
	switch {
	case !known || !unchanged:
		// New or legitimately modified file: record a fresh baseline.
		report.Baseline++
	case prev.Digest == digest:
		report.Verified++
	default:
		// Bytes changed with no corresponding metadata change. Confirm with
		// a deep decode before flagging.
		if decodeErr := s.check.Check(ctx, path); decodeErr != nil {
			state.Status = StatusCorrupt
			state.Detail = decodeErr.Error()
			report.Corrupt++
			s.logger.Error("corruption detected",
				logging.String("path", path),
				logging.Error(decodeErr),
			)
		} else {
			state.Status = StatusCorrupt
			state.Detail = fmt.Sprintf("digest changed without modification: recorded %s, computed %s", prev.Digest, digest)
			report.Corrupt++
			s.logger.Error("silent digest drift detected",
				logging.String("path", path),
			)
		}
	}

	return s.store.Upsert(ctx, state)
}
