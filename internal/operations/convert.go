package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/media/ffprobe"
	"shuttle/internal/queue"
	"shuttle/internal/services"
	"shuttle/internal/services/radarr"
	"shuttle/internal/transfer"
)

// ConvertHandler re-encodes a subject's eligible audio track into the target
// codec/layout, remuxes it into the container, and installs the result over
// the original file with rollback protection.
type ConvertHandler struct {
	convert    config.Convert
	slowRoot   string
	tempDir    string
	prober     Prober
	transcoder Transcoder
	copier     Transferer
	catalog    radarr.Service
	logger     *slog.Logger
}

// NewConvertHandler constructs the convert handler.
func NewConvertHandler(convert config.Convert, slowRoot, tempDir string, prober Prober, transcoder Transcoder, copier Transferer, catalog radarr.Service, logger *slog.Logger) *ConvertHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ConvertHandler{
		convert:    convert,
		slowRoot:   slowRoot,
		tempDir:    tempDir,
		prober:     prober,
		transcoder: transcoder,
		copier:     copier,
		catalog:    catalog,
		logger:     logger,
	}
}

// Execute runs the copying (validate+transcode) -> verifying (remux) ->
// updating (replace+rename+rescan) sequence.
func (h *ConvertHandler) Execute(ctx context.Context, subject queue.Subject, updateStatus UpdateStatusFunc, updateProgress UpdateProgressFunc) error {
	src := strings.TrimSpace(subject.Path)
	if src == "" {
		return services.Wrap(services.ErrValidation, "convert", "subject has no file path", nil)
	}
	if _, err := os.Stat(src); err != nil {
		return services.Wrap(services.ErrValidation, "convert", "media file missing", err)
	}

	updateStatus("copying")
	updateProgress("Validating audio format...")

	result, err := h.prober.Inspect(ctx, src)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "convert", "probe media file", err)
	}
	stream, ok := result.FindAudioStream(h.convert.SourceCodec, h.convert.SourceLayout)
	if !ok {
		return services.Wrap(services.ErrValidation, "convert",
			fmt.Sprintf("no %s %s audio track found", h.convert.SourceCodec, h.convert.SourceLayout), nil)
	}
	duration := result.DurationSeconds()

	// Transforms on the slow tier run under background priority; the fast
	// tier can absorb foreground I/O.
	_, background := pathUnderRoot(src, h.slowRoot)

	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	token := uuid.NewString()
	tempAudio := filepath.Join(h.tempDir, fmt.Sprintf("convert-%s.%s", token, h.convert.TargetCodec))
	tempOutput := filepath.Join(h.tempDir, fmt.Sprintf("convert-%s.mkv", token))
	defer h.cleanup(tempAudio, tempOutput)

	updateProgress(fmt.Sprintf("Converting %s to %s %s...",
		strings.ToUpper(stream.CodecName), strings.ToUpper(h.convert.TargetCodec), h.convert.TargetLayout))
	h.logger.Info("starting audio transcode",
		logging.Int64("subject", subject.ID),
		logging.String("codec", stream.CodecName),
		logging.Int("stream", stream.Index),
		logging.Float64("duration", duration),
		logging.Bool("background", background),
	)
	if err := h.transcoder.TranscodeAudio(ctx, src, tempAudio, stream.Index, duration, background, func(m string) { updateProgress(m) }); err != nil {
		return err
	}

	updateStatus("verifying")
	updateProgress("Merging audio track into container...")

	keep := h.keepAudioTracks(result)
	if err := h.transcoder.Remux(ctx, src, tempAudio, tempOutput, keep, background); err != nil {
		return err
	}

	updateStatus("updating")
	updateProgress("Replacing original file...")

	err = h.copier.SafeReplace(ctx, src, tempOutput, transfer.Options{
		BackgroundPriority: background,
		Progress:           func(message string) { updateProgress(message) },
	})
	if err != nil {
		return err
	}

	finalPath := RenamedFile(src, h.convert.SourceCodec, h.convert.TargetCodec, h.convert.TargetLayout)
	if finalPath != src {
		updateProgress("Renaming file...")
		if err := os.Rename(src, finalPath); err != nil {
			return fmt.Errorf("rename converted file: %w", err)
		}
		h.logger.Info("renamed converted file",
			logging.String("from", filepath.Base(src)),
			logging.String("to", filepath.Base(finalPath)),
		)
	}

	updateProgress("Triggering catalog rescan...")
	if err := h.catalog.Rescan(ctx, subject.ID); err != nil {
		return err
	}

	h.logger.Info("convert operation complete",
		logging.Int64("subject", subject.ID),
		logging.String("path", finalPath),
	)
	return nil
}

// keepAudioTracks returns the original container's audio track IDs to carry
// through the remux: everything except tracks already in the target codec
// family, which the new track replaces. Probed stream indexes serve as
// mkvmerge track IDs directly; both follow Matroska container order.
func (h *ConvertHandler) keepAudioTracks(result ffprobe.Result) []int {
	var keep []int
	for _, stream := range result.AudioStreams() {
		if strings.HasPrefix(strings.ToLower(stream.CodecName), h.convert.TargetCodec) {
			continue
		}
		keep = append(keep, stream.Index)
	}
	return keep
}

func (h *ConvertHandler) cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("remove temp artifact failed",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}
