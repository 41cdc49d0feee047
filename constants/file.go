package constants

import "strings"

// Format identifies a supported document format, decided by content sniffing.
type Format string

const (
	PDF     Format = "PDF"
	DOCX    Format = "DOCX"
	PPTX    Format = "PPTX"
	JSON    Format = "JSON"
	UNKNOWN Format = "UNKNOWN"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
// Extensions are a hint only; the loader sniffs content before trusting them.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"pptx": {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to its expected format.
// Returns UNKNOWN for anything outside the supported set.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "pptx":
		return PPTX
	case "json":
		return JSON
	default:
		return UNKNOWN
	}
}
