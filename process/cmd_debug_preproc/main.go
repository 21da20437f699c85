package main

import (
	"flag"

	"github.com/disintegration/imaging"

	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

// Writes the preprocessed image so thresholds can be checked by eye before
// turning on OCR_PREPROCESS.
func main() {
	in := flag.String("file", "", "input image")
	out := flag.String("out", "/tmp/receipt.preproc.png", "output PNG")
	binarize := flag.Uint("binarize", 0, "global threshold 1-255 (0 = off)")
	adaptive := flag.Bool("adaptive", false, "use local mean thresholding")
	flag.Parse()
	log := logger.Logger()
	if *in == "" {
		log.Fatalf("-file required")
	}
	img, err := imaging.Open(*in, imaging.AutoOrientation(true))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	opts := ocr.DefaultPreprocessOptions()
	if *binarize > 255 {
		log.Fatalf("-binarize must be 0-255")
	}
	opts.Binarize = uint8(*binarize)
	opts.Adaptive = *adaptive
	proc := ocr.Preprocess(img, opts)
	if err := imaging.Save(proc, *out); err != nil {
		log.Fatalf("save: %v", err)
	}
	log.Infof("wrote %s (%dx%d)", *out, proc.Bounds().Dx(), proc.Bounds().Dy())
}
