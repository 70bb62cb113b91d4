package operations

import (
	"context"

	"shuttle/internal/queue"
	"shuttle/internal/transfer"

	"shuttle/internal/media/ffprobe"
)

// UpdateStatusFunc receives handler sub-states (copying, verifying, ...).
// The values are free-form strings, not compiled-in constants, so new
// handlers need no queue changes.
type UpdateStatusFunc func(status string)

// UpdateProgressFunc receives free-form human-readable progress text.
type UpdateProgressFunc func(progress string)

// Handler executes one operation type against a subject. Progress and status
// travel only through the injected callbacks; any returned error fails the
// job terminally.
type Handler interface {
	Execute(ctx context.Context, subject queue.Subject, updateStatus UpdateStatusFunc, updateProgress UpdateProgressFunc) error
}

// Transferer is the digest-verified transfer surface handlers build on.
type Transferer interface {
	SafeCopy(ctx context.Context, src, dst string, opts transfer.Options) error
	SafeReplace(ctx context.Context, originalPath, newContentPath string, opts transfer.Options) error
}

// Prober inspects a media container.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Transcoder runs the external encode and remux processes.
type Transcoder interface {
	TranscodeAudio(ctx context.Context, input, output string, streamIndex int, durationSeconds float64, background bool, progress func(string)) error
	Remux(ctx context.Context, original, audioTrack, output string, keepAudioTracks []int, background bool) error
}

// Registry maps operation types to their handlers. Adding an operation type
// means adding one entry here.
type Registry map[queue.OperationType]Handler

// Lookup returns the handler for an operation type.
func (r Registry) Lookup(op queue.OperationType) (Handler, bool) {
	handler, ok := r[op]
	return handler, ok
}
