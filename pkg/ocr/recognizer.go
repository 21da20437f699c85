package ocr

import "context"

// Segmentation and engine modes understood by recognizers.
const (
	SegmentationSingleBlock = "single-block"
	SegmentationAuto        = "auto"
	SegmentationSingleLine  = "single-line"
	SegmentationSparse      = "sparse"

	EngineNeuralNetOnly = "neural-net-only"
	EngineDefault       = "default"
)

// ReceiptWhitelist limits recognition to characters that occur on receipts.
const ReceiptWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,:-/$%()[]{}" + currencySymbols

// RecognitionConfig is passed to the recognition engine with every image.
type RecognitionConfig struct {
	SegmentationMode        string
	EngineMode              string
	CharacterWhitelist      string
	PreserveInterwordSpaces bool
	DPIHint                 int
	Languages               []string
}

// DefaultRecognitionConfig is tuned for a single block of receipt text.
func DefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{
		SegmentationMode:        SegmentationSingleBlock,
		EngineMode:              EngineNeuralNetOnly,
		CharacterWhitelist:      ReceiptWhitelist,
		PreserveInterwordSpaces: true,
		DPIHint:                 300,
		Languages:               []string{"eng"},
	}
}

// Recognizer turns image bytes into plain text.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte, cfg RecognitionConfig) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, img []byte, cfg RecognitionConfig) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img []byte, cfg RecognitionConfig) (string, error) {
	return f(ctx, img, cfg)
}
