package scanner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"receiptscan/pkg/ocr"
)

// fakeExtractor returns the file content as the amount, or fails for "bad".
type fakeExtractor struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (f *fakeExtractor) Extract(_ context.Context, data []byte, _ *ocr.SelectionRegion) (ocr.ExtractionResult, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if string(data) == "bad" {
		return ocr.ExtractionResult{}, ocr.ErrUnsupportedFileType
	}
	return ocr.ExtractionResult{Amount: string(data)}, nil
}

// syncBuffer lets the test read output while workers write it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) records(t *testing.T) []Record {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Record
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad record line %q: %v", sc.Text(), err)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsSupported(t *testing.T) {
	tests := map[string]bool{
		"a.png":          true,
		"B.JPG":          true,
		"scan.pdf":       true,
		"notes.txt":      false,
		".hidden.png":    false,
		"x.ocr.tmp.png":  false,
		"dir/sub/c.tiff": true,
		"noext":          false,
	}
	for name, want := range tests {
		if got := IsSupported(name); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.png", "")
	writeFile(t, dir, "a.pdf", "")
	writeFile(t, dir, "readme.md", "")
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := ListFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "a.pdf,b.png" {
		t.Fatalf("got %v", got)
	}
	if _, err := ListFiles(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.png", "12.00")
	writeFile(t, dir, "two.jpg", "3.50")
	writeFile(t, dir, "three.pdf", "bad")
	writeFile(t, dir, "skip.txt", "99.00")

	var out syncBuffer
	ex := &fakeExtractor{}
	s := New(dir, 2, ex, &out)
	if err := s.ScanDir(context.Background()); err != nil {
		t.Fatalf("ScanDir: %v", err)
	}

	recs := out.records(t)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %+v", recs)
	}
	byFile := map[string]Record{}
	ids := map[string]bool{}
	for _, r := range recs {
		byFile[r.File] = r
		if r.ScanID == "" || ids[r.ScanID] {
			t.Fatalf("expected unique scan ids, got %+v", recs)
		}
		ids[r.ScanID] = true
	}
	if r := byFile["one.png"]; r.Result == nil || r.Result.Amount != "12.00" || r.Error != "" {
		t.Fatalf("one.png: %+v", r)
	}
	if r := byFile["two.jpg"]; r.Result == nil || r.Result.Amount != "3.50" {
		t.Fatalf("two.jpg: %+v", r)
	}
	if r := byFile["three.pdf"]; r.Result != nil || !strings.Contains(r.Error, ocr.ErrUnsupportedFileType.Error()) {
		t.Fatalf("three.pdf: %+v", r)
	}
	if ex.peak > 2 {
		t.Fatalf("expected at most 2 extractions in flight, saw %d", ex.peak)
	}
}

func TestProcessMissingFile(t *testing.T) {
	var out syncBuffer
	s := New(t.TempDir(), 1, &fakeExtractor{}, &out)
	rec := s.Process(context.Background(), "gone.png")
	if rec.Error == "" || rec.Result != nil {
		t.Fatalf("expected a read error, got %+v", rec)
	}
	if len(out.records(t)) != 1 {
		t.Fatal("expected the failure to be reported")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(t.TempDir(), 1, &fakeExtractor{}, &syncBuffer{})
	ctx, cancel := context.WithCancel(context.Background())
	names := make(chan string)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, names) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	var out syncBuffer
	s := New(dir, 2, &fakeExtractor{}, &out)
	s.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "new.png", "7.25")
	writeFile(t, dir, "ignored.txt", "1.00")

	deadline := time.Now().Add(5 * time.Second)
	var recs []Record
	for time.Now().Before(deadline) {
		if recs = out.records(t); len(recs) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Watch: %v", err)
	}
	if len(recs) != 1 || recs[0].File != "new.png" || recs[0].Result == nil || recs[0].Result.Amount != "7.25" {
		t.Fatalf("expected one record for new.png, got %+v", recs)
	}
}

func TestScanAndWatchCoversExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.png", "3.10")
	var out syncBuffer
	s := New(dir, 2, &fakeExtractor{}, &out)
	s.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ScanAndWatch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "new.png", "7.25")

	deadline := time.Now().Add(5 * time.Second)
	var recs []Record
	for time.Now().Before(deadline) {
		if recs = out.records(t); len(recs) >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	// let a duplicate record surface if one is coming
	time.Sleep(200 * time.Millisecond)
	recs = out.records(t)
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("ScanAndWatch: %v", err)
	}
	if len(recs) != 2 || recs[0].File != "new.png" || recs[1].File != "old.png" {
		t.Fatalf("expected one record each for new.png and old.png, got %+v", recs)
	}
	if recs[1].Result == nil || recs[1].Result.Amount != "3.10" {
		t.Fatalf("unexpected record for old.png %+v", recs[1])
	}
}
