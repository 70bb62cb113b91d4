// Package daemon runs the background service: it holds the single-instance
// file lock, owns the workflow manager lifecycle, and serves the HTTP API the
// CLI talks to.
package daemon
