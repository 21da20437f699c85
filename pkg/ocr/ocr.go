package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"receiptscan/pkg/logger"
)

const (
	DefaultMaxBytes = 10 << 20
	DefaultTimeout  = 30 * time.Second
)

// ExtractionResult pre-fills the expense form. Every field is a suggestion the
// user confirms; empty means "not found", never zero.
type ExtractionResult struct {
	Amount   string `json:"amount"`
	Vendor   string `json:"vendor"`
	Date     string `json:"date"`
	Category string `json:"category"`
}

// RecognizedDocument is the recognizer output plus its cleaned lines.
type RecognizedDocument struct {
	Text  string
	Lines []string
}

func NewRecognizedDocument(text string) RecognizedDocument {
	return RecognizedDocument{Text: text, Lines: SplitLines(text)}
}

// Extractor runs rasterize → crop → recognize → parse. It holds no per-call
// state, so one value serves concurrent requests.
type Extractor struct {
	Recognizer  Recognizer
	Rasterizer  Rasterizer
	Recognition RecognitionConfig
	Weights     Weights
	Preprocess  PreprocessOptions
	MaxBytes    int64
	Timeout     time.Duration
	PDFScale    float64
	Now         func() time.Time
}

// NewExtractor returns an extractor with default limits and tuning.
func NewExtractor(rec Recognizer, ras Rasterizer) *Extractor {
	return &Extractor{
		Recognizer:  rec,
		Rasterizer:  ras,
		Recognition: DefaultRecognitionConfig(),
		Weights:     DefaultWeights(),
		MaxBytes:    DefaultMaxBytes,
		Timeout:     DefaultTimeout,
		PDFScale:    DefaultPDFScale,
		Now:         time.Now,
	}
}

// Extract reads an image or PDF and returns the suggested expense fields.
// With a region only the amount is filled: a selection is a targeted re-scan
// of the total, not of the header.
func (e *Extractor) Extract(ctx context.Context, data []byte, region *SelectionRegion) (ExtractionResult, error) {
	doc, err := e.Recognize(ctx, data, region)
	if err != nil {
		return ExtractionResult{}, err
	}
	return e.parse(ctx, doc, region != nil), nil
}

// ExtractText parses text that was already recognized, e.g. after the user
// corrected it by hand.
func (e *Extractor) ExtractText(ctx context.Context, text string, hasRegion bool) ExtractionResult {
	return e.parse(ctx, NewRecognizedDocument(text), hasRegion)
}

// Recognize runs everything up to and including the recognition call.
func (e *Extractor) Recognize(ctx context.Context, data []byte, region *SelectionRegion) (RecognizedDocument, error) {
	if e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return RecognizedDocument{}, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(data), e.MaxBytes)
	}
	if len(data) == 0 {
		return RecognizedDocument{}, fmt.Errorf("%w: empty input", ErrUnsupportedFileType)
	}
	kind, mime, err := DetectKind(data)
	if err != nil {
		return RecognizedDocument{}, err
	}
	if e.Recognizer == nil {
		return RecognizedDocument{}, fmt.Errorf("%w: no recognizer configured", ErrRecognition)
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	payload, err := e.prepare(ctx, kind, mime, data, region)
	if err != nil {
		return RecognizedDocument{}, err
	}

	start := time.Now()
	text, err := e.Recognizer.Recognize(ctx, payload, e.Recognition)
	if err != nil {
		if !errors.Is(err, ErrRecognition) {
			err = fmt.Errorf("%w: %v", ErrRecognition, err)
		}
		return RecognizedDocument{}, err
	}
	doc := NewRecognizedDocument(text)
	logger.Debug(ctx, "ocr recognized", logger.Fields{
		"mime":     mime,
		"region":   region != nil,
		"text_len": len(text),
		"lines":    len(doc.Lines),
		"took":     time.Since(start).String(),
		"snippet":  snippet(text, 160),
	})
	return doc, nil
}

// prepare produces the bytes handed to the recognizer. A PNG, GIF or similar
// image with no region and no preprocessing is passed through untouched;
// JPEGs are always decoded so their EXIF orientation is applied.
func (e *Extractor) prepare(ctx context.Context, kind FileKind, mime string, data []byte, region *SelectionRegion) ([]byte, error) {
	var img image.Image
	switch kind {
	case KindPDF:
		if e.Rasterizer == nil {
			return nil, fmt.Errorf("%w: no rasterizer configured", ErrRasterization)
		}
		var err error
		img, err = e.Rasterizer.Rasterize(ctx, data, DefaultPDFPage, e.PDFScale)
		if err != nil {
			return nil, err
		}
	default:
		if region == nil && !e.Preprocess.enabled() && mime != "image/jpeg" {
			return data, nil
		}
		var err error
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("%w: decode image: %v", ErrUnsupportedFileType, err)
		}
	}
	if region != nil {
		cropped, err := Crop(img, *region)
		if err != nil {
			return nil, err
		}
		img = cropped
	}
	if e.Preprocess.enabled() {
		img = Preprocess(img, e.Preprocess)
	}
	return encodePNG(img)
}

func (e *Extractor) parse(ctx context.Context, doc RecognizedDocument, hasRegion bool) ExtractionResult {
	var res ExtractionResult
	w := e.Weights
	if w.MaxAmount <= 0 {
		w = DefaultWeights()
	}
	if c, ok := ExtractAmountWeighted(doc.Lines, w); ok {
		res.Amount = FormatAmount(c.Amount)
		logger.Debug(ctx, "ocr amount", logger.Fields{
			"amount":     res.Amount,
			"confidence": c.Confidence,
			"keyword":    c.Keyword,
			"line":       c.LineIndex,
			"raw":        c.Raw,
		})
	} else {
		logger.Debug(ctx, "ocr amount not found", logger.Fields{"lines": len(doc.Lines)})
	}
	if hasRegion {
		return res
	}
	res.Vendor = ExtractVendor(doc.Lines)
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	res.Date = ExtractDate(doc.Text, now())
	return res
}
