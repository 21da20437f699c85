// Package scanner runs receipt extraction over an inbox directory and reports
// one JSON line per file.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

// DefaultDebounce is how long a new file must stay quiet before it is read.
const DefaultDebounce = 300 * time.Millisecond

// Extractor is the part of ocr.Extractor the scanner needs.
type Extractor interface {
	Extract(ctx context.Context, data []byte, region *ocr.SelectionRegion) (ocr.ExtractionResult, error)
}

// Record is one output line.
type Record struct {
	ScanID string                `json:"scan_id"`
	File   string                `json:"file"`
	Result *ocr.ExtractionResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

type Scanner struct {
	Dir       string
	Workers   int
	Debounce  time.Duration
	Extractor Extractor

	mu  sync.Mutex // guards enc
	enc *json.Encoder
}

func New(dir string, workers int, ex Extractor, out io.Writer) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		Dir:       dir,
		Workers:   workers,
		Debounce:  DefaultDebounce,
		Extractor: ex,
		enc:       json.NewEncoder(out),
	}
}

// IsSupported filters inbox names by extension. Content is sniffed again by the extractor.
func IsSupported(name string) bool {
	base := filepath.Base(name)
	// skip dotfiles and our own intermediate files
	if strings.HasPrefix(base, ".") || strings.Contains(base, ".ocr.") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff", ".pdf":
		return true
	}
	return false
}

// ListFiles returns the supported file names in dir, sorted.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// ScanDir processes every supported file currently in the inbox.
func (s *Scanner) ScanDir(ctx context.Context) error {
	files, err := ListFiles(s.Dir)
	if err != nil {
		return err
	}
	logger.Info(ctx, "scanning inbox", logger.Fields{"dir": s.Dir, "files": len(files), "workers": s.Workers})
	names := make(chan string, len(files))
	for _, f := range files {
		names <- f
	}
	close(names)
	return s.Run(ctx, names)
}

// Run processes names from the channel with at most Workers extractions in
// flight, until the channel closes or ctx is done. Per-file failures are
// reported as records, not returned.
func (s *Scanner) Run(ctx context.Context, names <-chan string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
loop:
	for {
		select {
		case <-gctx.Done():
			break loop
		case name, ok := <-names:
			if !ok {
				break loop
			}
			g.Go(func() error {
				s.Process(gctx, name)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Process extracts one file and writes its record.
func (s *Scanner) Process(ctx context.Context, name string) Record {
	rec := Record{ScanID: uuid.NewString(), File: name}
	ctx = logger.WithScanID(ctx, rec.ScanID)

	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err == nil {
		var res ocr.ExtractionResult
		res, err = s.Extractor.Extract(ctx, data, nil)
		if err == nil {
			rec.Result = &res
		}
	}
	if err != nil {
		rec.Error = err.Error()
		logger.Warn(ctx, "scan failed", logger.Fields{"file": name, "error": rec.Error})
	} else {
		logger.Debug(ctx, "scan done", logger.Fields{"file": name, "amount": rec.Result.Amount})
	}
	s.emit(ctx, rec)
	return rec
}

func (s *Scanner) emit(ctx context.Context, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		logger.Error(ctx, "write record", logger.Fields{"file": rec.File, "error": err.Error()})
	}
}

// Watch processes files created in the inbox until ctx is done. A file is
// picked up once it has seen no create or write event for Debounce.
func (s *Scanner) Watch(ctx context.Context) error {
	return s.watch(ctx, false)
}

// ScanAndWatch is ScanDir followed by Watch, with the watcher registered
// before the directory is listed so no file slips in between.
func (s *Scanner) ScanAndWatch(ctx context.Context) error {
	return s.watch(ctx, true)
}

func (s *Scanner) watch(ctx context.Context, scanFirst bool) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(s.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.Dir, err)
	}

	var initial []string
	if scanFirst {
		if initial, err = ListFiles(s.Dir); err != nil {
			return err
		}
		logger.Info(ctx, "scanning inbox", logger.Fields{"dir": s.Dir, "files": len(initial), "workers": s.Workers})
	}
	logger.Info(ctx, "watching inbox", logger.Fields{"dir": s.Dir, "debounce": s.debounce().String()})

	names := make(chan string, len(initial)+256)
	for _, name := range initial {
		names <- name
	}
	go s.debounceEvents(ctx, w, names, initial)
	return s.Run(ctx, names)
}

func (s *Scanner) debounce() time.Duration {
	if s.Debounce <= 0 {
		return DefaultDebounce
	}
	return s.Debounce
}

// debounceEvents turns watcher events into names. The create event of a file
// already queued from the initial listing is dropped once.
func (s *Scanner) debounceEvents(ctx context.Context, w *fsnotify.Watcher, names chan<- string, queued []string) {
	defer close(names)
	quiet := s.debounce()
	pending := map[string]time.Time{}
	skip := make(map[string]bool, len(queued))
	for _, name := range queued {
		skip[name] = true
	}
	ticker := time.NewTicker(quiet / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !IsSupported(name) {
				continue
			}
			if ev.Has(fsnotify.Create) && skip[name] {
				delete(skip, name)
			} else if ev.Has(fsnotify.Create) {
				pending[name] = time.Now()
			} else if _, seen := pending[name]; seen && ev.Has(fsnotify.Write) {
				pending[name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) < quiet {
					continue
				}
				delete(pending, name)
				select {
				case names <- name:
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn(ctx, "watch error", logger.Fields{"error": err.Error()})
		}
	}
}
