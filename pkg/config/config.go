package config

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

type Config struct {
	Port           string
	JWTSecret      string
	LogLevel       string
	LogFormat      string
	Languages      []string
	MaxUploadBytes int64
	OCRTimeout     time.Duration
	PDFScale       float64
	Preprocess     bool
	TuningFile     string
	CORSOrigins    []string
	Workers        int
}

// Load reads .env (if present) and the process environment. Bad values are
// logged and replaced by their defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8081"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		Languages:      splitList(getEnv("OCR_LANG", "eng"), "+"),
		MaxUploadBytes: int64(getEnvInt("OCR_MAX_UPLOAD_BYTES", ocr.DefaultMaxBytes)),
		OCRTimeout:     getEnvDuration("OCR_TIMEOUT", ocr.DefaultTimeout),
		PDFScale:       getEnvFloat("OCR_PDF_SCALE", ocr.DefaultPDFScale),
		Preprocess:     getEnvBool("OCR_PREPROCESS", false),
		TuningFile:     getEnv("OCR_TUNING_FILE", ""),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*"), ","),
		Workers:        getEnvInt("OCR_WORKERS", runtime.NumCPU()),
	}
}

// LoadTuning reads a YAML score table. Keys missing from the file keep their
// default weights; an empty path returns the defaults.
func LoadTuning(path string) (ocr.Weights, error) {
	w := ocr.DefaultWeights()
	if path == "" {
		return w, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if w.MaxAmount <= 0 {
		return w, fmt.Errorf("tuning file %s: max_amount must be positive", path)
	}
	return w, nil
}

// Extractor wires the local Tesseract and MuPDF engines with this config.
func (c *Config) Extractor() (*ocr.Extractor, error) {
	w, err := LoadTuning(c.TuningFile)
	if err != nil {
		return nil, err
	}
	e := ocr.NewExtractor(ocr.TesseractRecognizer{}, ocr.FitzRasterizer{})
	e.Weights = w
	e.MaxBytes = c.MaxUploadBytes
	e.Timeout = c.OCRTimeout
	e.PDFScale = c.PDFScale
	if len(c.Languages) > 0 {
		e.Recognition.Languages = c.Languages
	}
	if c.Preprocess {
		e.Preprocess = ocr.DefaultPreprocessOptions()
	}
	return e, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		warnDefault(key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		warnDefault(key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		warnDefault(key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		warnDefault(key, v, def)
		return def
	}
	return d
}

func warnDefault(key, value string, def any) {
	logger.Warn(context.Background(), "invalid env value, using default", logger.Fields{
		"key":     key,
		"value":   value,
		"default": def,
	})
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
