// Package preflight provides readiness checks for the storage tiers, the
// external tool binaries, and the catalog service.
//
// The daemon runs RunAll once at startup and logs failures without refusing
// to start; the CLI "shuttle status" command renders the same results so an
// operator can see at a glance why jobs would fail.
package preflight
