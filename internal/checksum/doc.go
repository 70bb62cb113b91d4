// Package checksum produces fast non-cryptographic content digests of large
// files, with whole-percent progress reporting and cooperative cancellation.
package checksum
