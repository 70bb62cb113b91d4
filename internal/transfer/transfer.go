package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"shuttle/internal/checksum"
	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/services"
)

// Options controls how a transfer runs.
type Options struct {
	// BackgroundPriority shells the copy out to rsync under ionice/nice so
	// large transfers do not starve interactive readers of the same disk.
	BackgroundPriority bool
	// Progress receives free-form human-readable progress messages.
	Progress func(message string)
}

// Option configures the Copier.
type Option func(*Copier)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Copier) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Copier performs digest-verified file transfers.
type Copier struct {
	tools  config.Tools
	exec   Executor
	logger *slog.Logger
}

// NewCopier constructs a Copier using the configured tool names.
func NewCopier(tools config.Tools, logger *slog.Logger, opts ...Option) *Copier {
	if logger == nil {
		logger = logging.NewNop()
	}
	copier := &Copier{
		tools:  tools,
		exec:   commandExecutor{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(copier)
	}
	return copier
}

// SafeCopy copies src to dst with pre/post digest verification. On return
// either dst exists and is digest-equal to src, or dst does not exist and an
// error is reported. src is never mutated.
func (c *Copier) SafeCopy(ctx context.Context, src, dst string, opts Options) error {
	report(opts, "Calculating source checksum...")
	srcDigest, err := checksum.File(ctx, src, percentReporter(opts, "Source checksum"))
	if err != nil {
		return fmt.Errorf("digest source: %w", err)
	}

	report(opts, "Copying file...")
	if err := c.copy(ctx, src, dst, opts); err != nil {
		c.removeQuietly(dst)
		return err
	}

	report(opts, "Verifying destination checksum...")
	dstDigest, err := checksum.File(ctx, dst, percentReporter(opts, "Destination checksum"))
	if err != nil {
		c.removeQuietly(dst)
		return fmt.Errorf("digest destination: %w", err)
	}

	if srcDigest != dstDigest {
		c.removeQuietly(dst)
		c.logger.Error("checksum mismatch after copy",
			logging.String("src", src),
			logging.String("dst", dst),
		)
		return services.Wrap(services.ErrCorruption, "safe copy",
			fmt.Sprintf("digest mismatch: source %s destination %s", srcDigest, dstDigest), nil)
	}

	c.logger.Info("verified copy complete",
		logging.String("src", src),
		logging.String("dst", dst),
		logging.String("digest", srcDigest),
	)
	return nil
}

// SafeReplace installs the content of newContentPath over originalPath via a
// rename-then-copy-then-verify sequence. Any failure after the rename restores
// the prior content exactly; the backup sibling never survives the call.
func (c *Copier) SafeReplace(ctx context.Context, originalPath, newContentPath string, opts Options) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(originalPath); err == nil {
		mode = info.Mode().Perm()
	}

	report(opts, "Calculating checksum of new content...")
	wantDigest, err := checksum.File(ctx, newContentPath, percentReporter(opts, "New content checksum"))
	if err != nil {
		return fmt.Errorf("digest new content: %w", err)
	}

	// The rename is the rollback point: the backup keeps the prior bytes
	// intact on the same filesystem until the new content is verified.
	backupPath := originalPath + ".backup"
	if err := os.Rename(originalPath, backupPath); err != nil {
		return fmt.Errorf("stash original: %w", err)
	}

	report(opts, "Writing new content...")
	if err := c.copy(ctx, newContentPath, originalPath, opts); err != nil {
		c.restoreBackup(backupPath, originalPath)
		return err
	}

	report(opts, "Verifying written content...")
	gotDigest, err := checksum.File(ctx, originalPath, percentReporter(opts, "Written content checksum"))
	if err != nil {
		c.restoreBackup(backupPath, originalPath)
		return fmt.Errorf("digest written content: %w", err)
	}

	if wantDigest != gotDigest {
		c.restoreBackup(backupPath, originalPath)
		c.logger.Error("checksum mismatch after replace",
			logging.String("path", originalPath),
		)
		return services.Wrap(services.ErrCorruption, "safe replace",
			fmt.Sprintf("digest mismatch: wanted %s wrote %s", wantDigest, gotDigest), nil)
	}

	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("remove backup: %w", err)
	}
	if err := os.Chmod(originalPath, mode); err != nil {
		c.logger.Warn("restore permissions failed",
			logging.String("path", originalPath),
			logging.Error(err),
		)
	}

	c.logger.Info("verified replace complete",
		logging.String("path", originalPath),
		logging.String("digest", wantDigest),
	)
	return nil
}

func (c *Copier) copy(ctx context.Context, src, dst string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	if opts.BackgroundPriority {
		return c.copyWithRsync(ctx, src, dst, opts.Progress)
	}
	return copyContents(src, dst)
}

// copyWithRsync runs rsync under the lowest CPU and I/O priorities and relays
// its progress stream.
func (c *Copier) copyWithRsync(ctx context.Context, src, dst string, progress func(string)) error {
	args := []string{
		"-c3",
		c.tools.Nice, "-n19",
		c.tools.Rsync, "-a", "--chmod=D0755,F0644", "--info=progress2", "--no-i-r",
		src, dst,
	}
	err := c.exec.Run(ctx, c.tools.Ionice, args, func(line string) {
		if progress != nil {
			progress("Copying: " + line)
		}
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "background copy", "", err)
	}
	return nil
}

func copyContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

func (c *Copier) restoreBackup(backupPath, originalPath string) {
	c.removeQuietly(originalPath)
	if err := os.Rename(backupPath, originalPath); err != nil {
		c.logger.Error("restore backup failed",
			logging.String("backup", backupPath),
			logging.String("path", originalPath),
			logging.Error(err),
		)
	}
}

func (c *Copier) removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("remove failed", logging.String("path", path), logging.Error(err))
	}
}

func report(opts Options, message string) {
	if opts.Progress != nil {
		opts.Progress(message)
	}
}

func percentReporter(opts Options, label string) checksum.ProgressFunc {
	if opts.Progress == nil {
		return nil
	}
	return func(percent int) {
		// Whole percent ticks only; the queue persists every update.
		if percent%10 == 0 {
			opts.Progress(fmt.Sprintf("%s: %d%%", label, percent))
		}
	}
}
