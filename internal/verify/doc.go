// Package verify implements the periodic integrity re-scan of previously
// processed media files. Per-file digests live in a SQLite database; a scan
// pass re-digests unchanged files and runs an ffmpeg deep decode over any
// file whose bytes drifted, flagging silent corruption for operators.
package verify
