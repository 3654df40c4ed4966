package constants

import "strings"

// PDF is the only source format the engine ingests.
const PDF = "PDF"

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for an extension, or "" if unsupported.
func MapExtToFormat(ext string) string {
	if _, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return PDF
	}
	return ""
}
