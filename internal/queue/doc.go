// Package queue defines the persisted job model: live queue items, the bounded
// history ring, and the JSON-document store both live in.
//
// The Store is deliberately not safe for concurrent use. The workflow manager
// exclusively owns it behind a single mutex and flushes every mutation before
// releasing the lock, so reader snapshots are never stale relative to an
// acknowledged change. Only the four lifecycle statuses are closed enums;
// handler sub-states travel as free-form strings so adding an operation type
// never touches this package.
package queue
