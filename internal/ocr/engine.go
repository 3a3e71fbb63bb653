package ocr

import "context"

// TextEngine recognizes text in a single raster image. Implementations must
// be immutable after construction and safe for concurrent use.
type TextEngine interface {
	Name() string
	ExtractImage(ctx context.Context, image []byte) (string, error)
}
