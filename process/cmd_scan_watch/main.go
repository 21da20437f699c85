package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"receiptscan/pkg/config"
	"receiptscan/pkg/logger"
	"receiptscan/process/scanner"
)

func main() {
	cfg := config.Load()
	dir := flag.String("dir", "inbox", "directory to scan for receipt images and PDFs")
	workers := flag.Int("workers", cfg.Workers, "worker pool size (default OCR_WORKERS or NumCPU)")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	flag.Parse()

	// stdout carries the JSON records
	logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	log := logger.Logger()

	ex, err := cfg.Extractor()
	if err != nil {
		log.Fatalf("ocr setup: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scanner.New(*dir, *workers, ex, os.Stdout)
	if *watch {
		if err := s.ScanAndWatch(ctx); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
		return
	}
	if err := s.ScanDir(ctx); err != nil {
		log.Fatalf("scan failed: %v", err)
	}
}
