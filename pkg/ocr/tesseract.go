package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

var pageSegModes = map[string]gosseract.PageSegMode{
	SegmentationSingleBlock: gosseract.PSM_SINGLE_BLOCK,
	SegmentationAuto:        gosseract.PSM_AUTO,
	SegmentationSingleLine:  gosseract.PSM_SINGLE_LINE,
	SegmentationSparse:      gosseract.PSM_SPARSE_TEXT,
}

// TesseractRecognizer runs the local Tesseract engine through gosseract.
// Every call gets its own client, so the value is safe for concurrent use.
type TesseractRecognizer struct{}

// Recognize returns as soon as ctx is done. The engine call itself cannot be
// interrupted; its client is closed when it finishes in the background.
func (t TesseractRecognizer) Recognize(ctx context.Context, img []byte, cfg RecognitionConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := t.run(img, cfg)
		done <- result{text: text, err: err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %v", ErrRecognition, r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrRecognition, ctx.Err())
	}
}

// run configures a fresh client. The engine mode is left to the library
// default, which is the LSTM engine on tesseract 4+ builds.
func (t TesseractRecognizer) run(img []byte, cfg RecognitionConfig) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if mode, ok := pageSegModes[cfg.SegmentationMode]; ok {
		if err := client.SetPageSegMode(mode); err != nil {
			return "", fmt.Errorf("set page seg mode: %w", err)
		}
	}
	if cfg.CharacterWhitelist != "" {
		if err := client.SetWhitelist(cfg.CharacterWhitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if cfg.PreserveInterwordSpaces {
		if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
			return "", fmt.Errorf("set preserve_interword_spaces: %w", err)
		}
	}
	if cfg.DPIHint > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(cfg.DPIHint)); err != nil {
			return "", fmt.Errorf("set user_defined_dpi: %w", err)
		}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return client.Text()
}
