// Package logging builds the slog loggers used across the daemon and CLI.
//
// It supports a human-oriented console format and a machine-oriented JSON
// format, fans output out to stdout plus the configured log file, and exposes
// small attr helpers so call sites stay terse.
package logging
