// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no shuttle-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (duration, size)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// FindAudioStream locates the first audio track matching a codec family
// prefix and an exact channel layout, which is how convert operations decide
// eligibility.
package ffprobe
