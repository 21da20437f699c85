package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"receiptscan/pkg/config"
	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

// Replays already-recognized text (a file or stdin) through the parsers and
// dumps every amount candidate. Useful when tuning OCR_TUNING_FILE weights.
func main() {
	path := flag.String("path", "", "text file with recognizer output (default stdin)")
	tuning := flag.String("tuning", os.Getenv("OCR_TUNING_FILE"), "YAML weights file")
	flag.Parse()
	log := logger.Logger()

	var (
		raw []byte
		err error
	)
	if *path == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(*path)
	}
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	w, err := config.LoadTuning(*tuning)
	if err != nil {
		log.Fatalf("tuning: %v", err)
	}

	lines := ocr.SplitLines(string(raw))
	for i, c := range ocr.AmountCandidates(lines, w) {
		fmt.Printf("%3d %10s conf=%5.2f kw=%-14s line=%-3d raw=%q\n", i, ocr.FormatAmount(c.Amount), c.Confidence, c.Keyword, c.LineIndex, c.Raw)
	}
	fmt.Printf("vendor=%q date=%s\n", ocr.ExtractVendor(lines), ocr.ExtractDate(string(raw), time.Now()))
}
