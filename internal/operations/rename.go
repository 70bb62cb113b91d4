package operations

import (
	"path/filepath"
	"strings"
)

// RenamedFile returns the path a media file should have after its audio has
// been converted, substituting the source codec tag in the filename with the
// target codec tag. A filename that already carries the target tag, in either
// separator style, is returned unchanged so repeated conversions stay
// idempotent. When the filename carries no recognizable source tag the target
// tag is appended before the extension.
func RenamedFile(path, sourceCodec, targetCodec, targetLayout string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	upperBase := strings.ToUpper(base)

	// Scene-style names use dots between tokens, library-style names use
	// spaces. Pick the target tag's separator to match the filename.
	sep := " "
	if !strings.Contains(base, " ") {
		sep = "."
	}
	target := strings.ToUpper(targetCodec) + sep + targetLayout

	for _, s := range []string{" ", "."} {
		tag := strings.ToUpper(targetCodec) + s + targetLayout
		if strings.Contains(upperBase, strings.ToUpper(tag)) {
			return path
		}
	}

	for _, fragment := range sourceTagVariants(strings.ToUpper(sourceCodec)) {
		idx := strings.Index(upperBase, fragment)
		if idx < 0 {
			continue
		}
		renamed := base[:idx] + target + base[idx+len(fragment):]
		return filepath.Join(dir, renamed+ext)
	}
	return filepath.Join(dir, base+sep+target+ext)
}

// sourceTagVariants lists the codec tags to look for in a filename, longest
// first so "DTS-HD MA" wins over "DTS".
func sourceTagVariants(codec string) []string {
	return []string{
		codec + "-HD MA",
		codec + "-HD.MA",
		codec + "-HD",
		codec,
	}
}
