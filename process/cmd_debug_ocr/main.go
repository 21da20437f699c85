package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"receiptscan/pkg/config"
	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

func main() {
	f := flag.String("file", "", "image or PDF to OCR")
	var r ocr.SelectionRegion
	flag.Float64Var(&r.X, "x", 0, "selection x (display px)")
	flag.Float64Var(&r.Y, "y", 0, "selection y (display px)")
	flag.Float64Var(&r.Width, "width", 0, "selection width (display px); 0 means no selection")
	flag.Float64Var(&r.Height, "height", 0, "selection height (display px)")
	flag.Float64Var(&r.DisplayWidth, "display-width", 0, "displayed image width")
	flag.Float64Var(&r.DisplayHeight, "display-height", 0, "displayed image height")
	flag.Float64Var(&r.NativeWidth, "native-width", 0, "native image width (0 = decoded size)")
	flag.Float64Var(&r.NativeHeight, "native-height", 0, "native image height (0 = decoded size)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(&logger.Config{Level: "debug", Format: cfg.LogFormat, Output: os.Stderr})
	log := logger.Logger()
	if *f == "" {
		log.Fatalf("-file required")
	}
	data, err := os.ReadFile(*f)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	ex, err := cfg.Extractor()
	if err != nil {
		log.Fatalf("ocr setup: %v", err)
	}

	var region *ocr.SelectionRegion
	if r.Width > 0 {
		region = &r
	}
	ctx := context.Background()
	doc, err := ex.Recognize(ctx, data, region)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	fmt.Printf("--- text (%d chars) ---\n%s\n--- lines ---\n", len(doc.Text), doc.Text)
	for i, ln := range doc.Lines {
		fmt.Printf("%2d %q norm=%q\n", i, ln, ocr.Normalize(ln))
	}
	if c, ok := ocr.ExtractAmountWeighted(doc.Lines, ex.Weights); ok {
		fmt.Printf("--- amount ---\n%s conf=%.2f keyword=%s line=%d raw=%q\n", ocr.FormatAmount(c.Amount), c.Confidence, c.Keyword, c.LineIndex, c.Raw)
	}
	res := ex.ExtractText(ctx, doc.Text, region != nil)
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Printf("--- result ---\n%s\n", out)
}
