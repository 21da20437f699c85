package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessing defaults for phone photos of receipts.
const (
	DefaultContrast     = 15.0
	DefaultSharpen      = 0.7
	DefaultMinHeight    = 900
	DefaultBinarizeAt   = 160
	adaptiveWindowSize  = 25
	adaptiveWindowBias  = 10
	maxPreprocessHeight = 4000
)

// PreprocessOptions controls the optional image cleanup before recognition.
// The zero value leaves the image untouched.
type PreprocessOptions struct {
	Grayscale bool
	Contrast  float64
	Sharpen   float64
	// MinHeight upscales shorter images; small receipt text reads poorly below ~900px.
	MinHeight int
	// Binarize applies a global threshold when > 0.
	Binarize uint8
	// Adaptive uses a local mean threshold instead of Binarize; better on uneven lighting.
	Adaptive bool
}

// DefaultPreprocessOptions is grayscale + contrast + sharpen + upscale, no thresholding.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Grayscale: true,
		Contrast:  DefaultContrast,
		Sharpen:   DefaultSharpen,
		MinHeight: DefaultMinHeight,
	}
}

func (o PreprocessOptions) enabled() bool {
	return o.Grayscale || o.Contrast != 0 || o.Sharpen > 0 || o.MinHeight > 0 || o.Binarize > 0 || o.Adaptive
}

// Preprocess returns a cleaned copy of img.
func Preprocess(img image.Image, o PreprocessOptions) *image.NRGBA {
	out := imaging.Clone(img)
	if o.Grayscale || o.Binarize > 0 || o.Adaptive {
		out = imaging.Grayscale(out)
	}
	if o.Contrast != 0 {
		out = imaging.AdjustContrast(out, o.Contrast)
	}
	if o.Sharpen > 0 {
		out = imaging.Sharpen(out, o.Sharpen)
	}
	if h := out.Bounds().Dy(); o.MinHeight > 0 && h > 0 && h < o.MinHeight {
		target := o.MinHeight
		if target > maxPreprocessHeight {
			target = maxPreprocessHeight
		}
		out = imaging.Resize(out, 0, target, imaging.Lanczos)
	}
	switch {
	case o.Adaptive:
		out = adaptiveThreshold(out, adaptiveWindowSize, adaptiveWindowBias)
	case o.Binarize > 0:
		out = binarize(out, o.Binarize)
	}
	return out
}

// binarize thresholds a grayscale image in place; pixels at or below t go black.
func binarize(img *image.NRGBA, t uint8) *image.NRGBA {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		v := uint8(255)
		if pix[i] <= t {
			v = 0
		}
		pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
	}
	return img
}

// adaptiveThreshold compares every pixel to the mean of its window, using a
// summed-area table so the cost does not depend on the window size.
func adaptiveThreshold(img *image.NRGBA, window, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	half := window / 2
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}
	// sat has a zero row and column so lookups need no bounds checks.
	sat := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += int(img.Pix[y*img.Stride+x*4])
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + row
		}
	}
	out := imaging.New(w, h, image.White.C)
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half+1, h)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half+1, w)
			sum := sat[y1*(w+1)+x1] - sat[y0*(w+1)+x1] - sat[y1*(w+1)+x0] + sat[y0*(w+1)+x0]
			mean := sum / ((x1 - x0) * (y1 - y0))
			if int(img.Pix[y*img.Stride+x*4]) < mean-bias {
				i := y*out.Stride + x*4
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 0, 0, 0
			}
		}
	}
	return out
}
