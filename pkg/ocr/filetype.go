package ocr

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// FileKind is the coarse input type the orchestrator branches on.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindImage
	KindPDF
)

func (k FileKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	}
	return "unknown"
}

// rasterTypes are the image formats both the decoder and the engine read.
var rasterTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// DetectKind sniffs the content; file names and client-supplied content types are not trusted.
func DetectKind(data []byte) (FileKind, string, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return KindPDF, mt.String(), nil
	case mimetype.EqualsAny(mt.String(), rasterTypes...):
		return KindImage, mt.String(), nil
	}
	return KindUnknown, mt.String(), fmt.Errorf("%w: %s", ErrUnsupportedFileType, mt.String())
}
