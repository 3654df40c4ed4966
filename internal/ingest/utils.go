package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	return constants.MapExtToFormat(ext) == constants.PDF
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
