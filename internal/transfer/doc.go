// Package transfer implements the digest-verified copy and replace primitives
// every operation builds on.
//
// SafeCopy guarantees the destination either matches the source byte for byte
// or does not exist. SafeReplace is the single recovery mechanism in the
// system: it renames the original aside as a rollback point, copies the new
// content in, verifies it, and either commits or restores the prior bytes.
// Background-priority transfers shell out to rsync under ionice/nice so a
// shared disk stays responsive for foreground readers.
package transfer
