package ocr

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// SelectionRegion is a rectangle the user drew over the displayed image, in
// display pixels, plus the display and native sizes at the time it was drawn.
// A zero native size means "use the decoded image's own size".
type SelectionRegion struct {
	X             float64 `json:"x" form:"x"`
	Y             float64 `json:"y" form:"y"`
	Width         float64 `json:"width" form:"width"`
	Height        float64 `json:"height" form:"height"`
	DisplayWidth  float64 `json:"display_width" form:"display_width"`
	DisplayHeight float64 `json:"display_height" form:"display_height"`
	NativeWidth   float64 `json:"native_width" form:"native_width"`
	NativeHeight  float64 `json:"native_height" form:"native_height"`
}

// Validate checks the region against its display bounds.
func (r SelectionRegion) Validate() error {
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: empty selection %.0fx%.0f", ErrCrop, r.Width, r.Height)
	case r.DisplayWidth <= 0 || r.DisplayHeight <= 0:
		return fmt.Errorf("%w: display size %.0fx%.0f", ErrCrop, r.DisplayWidth, r.DisplayHeight)
	case r.X < 0 || r.Y < 0:
		return fmt.Errorf("%w: negative origin (%.0f,%.0f)", ErrCrop, r.X, r.Y)
	case r.X+r.Width > r.DisplayWidth+0.5 || r.Y+r.Height > r.DisplayHeight+0.5:
		return fmt.Errorf("%w: selection exceeds display %.0fx%.0f", ErrCrop, r.DisplayWidth, r.DisplayHeight)
	case r.NativeWidth < 0 || r.NativeHeight < 0:
		return fmt.Errorf("%w: negative native size", ErrCrop)
	}
	return nil
}

// NativeRect maps the selection into native pixel coordinates of an image with
// the given bounds, scaling each axis by native/display.
func (r SelectionRegion) NativeRect(bounds image.Rectangle) (image.Rectangle, error) {
	if err := r.Validate(); err != nil {
		return image.Rectangle{}, err
	}
	nw, nh := r.NativeWidth, r.NativeHeight
	if nw == 0 || nh == 0 {
		nw, nh = float64(bounds.Dx()), float64(bounds.Dy())
	}
	sx := nw / r.DisplayWidth
	sy := nh / r.DisplayHeight
	x0 := int(math.Round(r.X * sx))
	y0 := int(math.Round(r.Y * sy))
	w := int(math.Round(r.Width * sx))
	h := int(math.Round(r.Height * sy))
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: selection collapses to %dx%d native pixels", ErrCrop, w, h)
	}
	rect := image.Rect(x0, y0, x0+w, y0+h).Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: selection outside image %dx%d", ErrCrop, bounds.Dx(), bounds.Dy())
	}
	return rect, nil
}

// Crop cuts the selected region out of img.
func Crop(img image.Image, region SelectionRegion) (*image.NRGBA, error) {
	rect, err := region.NativeRect(img.Bounds())
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, rect), nil
}

// CropBytes decodes an image, crops it and re-encodes the result as PNG so the
// recognizer sees no compression artifacts.
func CropBytes(data []byte, region SelectionRegion) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrUnsupportedFileType, err)
	}
	cropped, err := Crop(img, region)
	if err != nil {
		return nil, err
	}
	return encodePNG(cropped)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRasterization, err)
	}
	return buf.Bytes(), nil
}
