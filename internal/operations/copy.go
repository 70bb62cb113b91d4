package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"shuttle/internal/logging"
	"shuttle/internal/queue"
	"shuttle/internal/services"
	"shuttle/internal/services/radarr"
	"shuttle/internal/transfer"
)

// CopyHandler relocates a subject's file from the fast tier to the slow tier
// with digest verification, then repoints the catalog record.
type CopyHandler struct {
	fastRoot string
	slowRoot string
	copier   Transferer
	catalog  radarr.Service
	logger   *slog.Logger
}

// NewCopyHandler constructs the copy handler.
func NewCopyHandler(fastRoot, slowRoot string, copier Transferer, catalog radarr.Service, logger *slog.Logger) *CopyHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CopyHandler{
		fastRoot: fastRoot,
		slowRoot: slowRoot,
		copier:   copier,
		catalog:  catalog,
		logger:   logger,
	}
}

// Execute runs the copying -> updating sequence.
func (h *CopyHandler) Execute(ctx context.Context, subject queue.Subject, updateStatus UpdateStatusFunc, updateProgress UpdateProgressFunc) error {
	src := strings.TrimSpace(subject.Path)
	if src == "" {
		return services.Wrap(services.ErrValidation, "copy", "subject has no file path", nil)
	}
	rel, ok := pathUnderRoot(src, h.fastRoot)
	if !ok {
		return services.Wrap(services.ErrValidation, "copy",
			fmt.Sprintf("file %s is not under the fast tier root %s", src, h.fastRoot), nil)
	}
	dst := filepath.Join(h.slowRoot, rel)

	updateStatus("copying")
	updateProgress("Copying file...")
	h.logger.Info("starting verified copy",
		logging.String("src", src),
		logging.String("dst", dst),
	)

	// Slow-tier writes are always deprioritized.
	err := h.copier.SafeCopy(ctx, src, dst, transfer.Options{
		BackgroundPriority: true,
		Progress:           func(message string) { updateProgress(message) },
	})
	if err != nil {
		return err
	}

	updateStatus("updating")
	updateProgress("Updating catalog...")

	// The verified copy stands even when the catalog update fails: the bytes
	// are correct at the destination, so this surfaces as a distinct catalog
	// error for manual reconciliation instead of rolling back the transfer.
	newDir := filepath.Dir(dst)
	if err := h.catalog.UpdateLocation(ctx, subject.ID, newDir, h.slowRoot); err != nil {
		return err
	}
	updateProgress("Triggering catalog rescan...")
	if err := h.catalog.Rescan(ctx, subject.ID); err != nil {
		return err
	}

	h.logger.Info("copy operation complete",
		logging.Int64("subject", subject.ID),
		logging.String("dst", dst),
	)
	return nil
}

// pathUnderRoot reports whether path sits under root and returns the relative
// remainder.
func pathUnderRoot(path, root string) (string, bool) {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if root == "" || root == "." {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
