package ocr

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable means no OCR engine can be used: the cloud engine is
// not credentialed and the local binary is not installed.
var ErrEngineUnavailable = errors.New("no OCR engine available: install tesseract or configure the Google Vision API key")

// UnsupportedMediaTypeError is raised before any engine is invoked when the
// gateway cannot route the media type.
type UnsupportedMediaTypeError struct {
	MimeType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type for OCR: %q", e.MimeType)
}

// DependencyMissingError names the specific optional capability that is not
// installed, so operators know what to fix.
type DependencyMissingError struct {
	Capability string // e.g. "pdftoppm (PDF rasterizer)"
	Cause      error
}

func (e *DependencyMissingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("missing dependency: %s: %v", e.Capability, e.Cause)
	}
	return fmt.Sprintf("missing dependency: %s", e.Capability)
}

func (e *DependencyMissingError) Unwrap() error {
	return e.Cause
}
