package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks precondition failures: missing files, paths outside
	// the configured tier root, no eligible audio track. No transform ran.
	ErrValidation = errors.New("validation error")
	// ErrExternalTool marks a failed external process: non-zero exit or a
	// declared output file that was never produced.
	ErrExternalTool = errors.New("external tool error")
	// ErrCorruption marks a digest mismatch detected after a copy or replace.
	// The rollback path has already run by the time this error surfaces.
	ErrCorruption = errors.New("corruption detected")
	// ErrCatalog marks a remote catalog update failure after a locally
	// successful transform. The file-level result stands; only the catalog
	// record needs manual reconciliation.
	ErrCatalog = errors.New("catalog update error")
	// ErrNotFound marks lookups that matched nothing.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, detail string, err error) error {
	message := buildDetail(operation, detail)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, message, err)
	}
	return fmt.Errorf("%w: %s", marker, message)
}

func buildDetail(operation, detail string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		parts = append(parts, detail)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
