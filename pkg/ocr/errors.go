package ocr

import "errors"

// Extraction failures. Callers match them with errors.Is; the wrapped message
// carries the detail. A field that simply could not be found is not an error.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrDocumentLoad        = errors.New("document load failed")
	ErrRasterization       = errors.New("rasterization failed")
	ErrCrop                = errors.New("crop failed")
	ErrRecognition         = errors.New("recognition failed")
)
