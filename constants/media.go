package constants

import "strings"

// Media formats the OCR gateway understands.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// MimePDF is the only non-image media type the gateway accepts.
const MimePDF = "application/pdf"

// DefaultAcceptedMimeTypes is the fallback accept list for document types
// that do not declare their own.
var DefaultAcceptedMimeTypes = []string{MimePDF, "image/png", "image/jpeg"}

// MapMimeToFormat classifies a media type for routing. Returns "" when the
// gateway cannot handle it.
func MapMimeToFormat(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mt == MimePDF:
		return PDF
	case strings.HasPrefix(mt, "image/"):
		return IMAGE
	default:
		return ""
	}
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtForMime picks a file extension for temp artifacts written during OCR.
func ExtForMime(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case MimePDF:
		return "pdf"
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/tiff":
		return "tif"
	default:
		return "bin"
	}
}
