// Package operations implements the media operation handlers dispatched by
// the workflow manager. Each handler runs one queued operation end to end,
// reporting status-phase and human-readable progress through callbacks
// supplied by the caller.
package operations
