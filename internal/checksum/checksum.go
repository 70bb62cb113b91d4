package checksum

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// blockSize is sized for multi-gigabyte media files: large enough to keep
// syscall overhead negligible, small enough that progress stays responsive.
const blockSize = 8 * 1024 * 1024

// ProgressFunc receives whole-percent progress while a file is being digested.
type ProgressFunc func(percent int)

// File streams path through xxHash3-128 and returns the digest as a hex token.
// The hash is for corruption detection only; cryptographic strength is not a
// goal. Read errors from the filesystem are returned unchanged, wrapped with
// path context. The context is checked between blocks so long scans can be
// cancelled cooperatively.
func File(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	total := info.Size()

	hasher := xxh3.New()
	buf := make([]byte, blockSize)
	var read int64
	lastPercent := -1

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, readErr := file.Read(buf)
		if n > 0 {
			if _, err := hasher.Write(buf[:n]); err != nil {
				return "", fmt.Errorf("hash %s: %w", path, err)
			}
			read += int64(n)
			if progress != nil && total > 0 {
				percent := int(read * 100 / total)
				if percent != lastPercent {
					lastPercent = percent
					progress(percent)
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return "", readErr
		}
	}

	sum := hasher.Sum128().Bytes()
	return hex.EncodeToString(sum[:]), nil
}
