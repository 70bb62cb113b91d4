// Package api defines the JSON payloads exchanged between the daemon's HTTP
// endpoint and the CLI, plus converters from the internal queue types.
package api
