package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"receiptscan/pkg/config"
	"receiptscan/pkg/ocr"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T, secret string, rec ocr.Recognizer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: secret, MaxUploadBytes: 1 << 20, CORSOrigins: []string{"*"}}
	ex := ocr.NewExtractor(rec, nil)
	ex.MaxBytes = cfg.MaxUploadBytes
	ex.Now = func() time.Time { return time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC) }
	return newRouter(cfg, ex)
}

func staticText(text string) ocr.Recognizer {
	return ocr.RecognizerFunc(func(context.Context, []byte, ocr.RecognitionConfig) (string, error) {
		return text, nil
	})
}

func pngUpload(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "receipt.png")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(file)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func signToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) ocr.ExtractionResult {
	t.Helper()
	var res ocr.ExtractionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json %q: %v", rec.Body.String(), err)
	}
	return res
}

func TestHealthz(t *testing.T) {
	r := setupTestServer(t, "", staticText(""))
	resp := performRequest(r, http.MethodGet, "/healthz", nil, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if resp.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r := setupTestServer(t, "", staticText(""))
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestExtractUpload(t *testing.T) {
	r := setupTestServer(t, "", staticText("ACME CORP LTD\n2024-03-15\nTOTAL $42.50"))
	body, ct := multipartBody(t, pngUpload(t, 50, 50), nil)
	resp := performRequest(r, http.MethodPost, "/receipts/extract", body, "", ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
	want := ocr.ExtractionResult{Amount: "42.50", Vendor: "ACME CORP LTD", Date: "2024-03-15"}
	if got := decodeResult(t, resp); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestExtractUploadWithRegion(t *testing.T) {
	var seen []byte
	rec := ocr.RecognizerFunc(func(_ context.Context, img []byte, _ ocr.RecognitionConfig) (string, error) {
		seen = img
		return "17.25", nil
	})
	r := setupTestServer(t, "", rec)
	body, ct := multipartBody(t, pngUpload(t, 800, 800), map[string]string{
		"x": "10", "y": "10", "width": "100", "height": "50",
		"display_width": "200", "display_height": "200",
		"native_width": "800", "native_height": "800",
	})
	resp := performRequest(r, http.MethodPost, "/receipts/extract", body, "", ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
	if got := decodeResult(t, resp); got != (ocr.ExtractionResult{Amount: "17.25"}) {
		t.Fatalf("expected amount only, got %+v", got)
	}
	img, err := imaging.Decode(bytes.NewReader(seen))
	if err != nil {
		t.Fatalf("recognizer got undecodable bytes: %v", err)
	}
	if sz := img.Bounds().Size(); sz.X != 400 || sz.Y != 200 {
		t.Fatalf("expected 400x200 crop, got %v", sz)
	}
}

func TestExtractErrorStatuses(t *testing.T) {
	failing := ocr.RecognizerFunc(func(context.Context, []byte, ocr.RecognitionConfig) (string, error) {
		return "", errors.New("engine down")
	})
	tests := []struct {
		name   string
		rec    ocr.Recognizer
		file   []byte
		fields map[string]string
		want   int
	}{
		{"missing file", staticText(""), nil, nil, http.StatusBadRequest},
		{"unsupported", staticText(""), []byte("TOTAL 12.00 plain text"), nil, http.StatusUnsupportedMediaType},
		{"too large", staticText(""), bytes.Repeat([]byte{0}, 1<<20+1), nil, http.StatusRequestEntityTooLarge},
		{"bad region", staticText(""), pngUpload(t, 10, 10), map[string]string{"width": "5", "height": "0", "display_width": "10", "display_height": "10"}, http.StatusBadRequest},
		{"unparsable region", staticText(""), pngUpload(t, 10, 10), map[string]string{"width": "wide"}, http.StatusBadRequest},
		{"recognizer down", failing, pngUpload(t, 10, 10), nil, http.StatusBadGateway},
		{"pdf without rasterizer", staticText(""), []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestServer(t, "", tt.rec)
			body, ct := multipartBody(t, tt.file, tt.fields)
			resp := performRequest(r, http.MethodPost, "/receipts/extract", body, "", ct)
			if resp.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", resp.Code, tt.want, resp.Body.String())
			}
			var payload map[string]string
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
				t.Fatalf("expected an error body, got %q", resp.Body.String())
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	r := setupTestServer(t, "", staticText(""))
	body, _ := json.Marshal(map[string]any{"text": "Corner Deli Shop\nSubtotal 10.00\nTotal 12.00"})
	resp := performRequest(r, http.MethodPost, "/receipts/extract-text", bytes.NewReader(body), "", "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
	want := ocr.ExtractionResult{Amount: "12.00", Vendor: "Corner Deli Shop", Date: "2030-01-02"}
	if got := decodeResult(t, resp); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	resp = performRequest(r, http.MethodPost, "/receipts/extract-text", bytes.NewBufferString(`{"region":true}`), "", "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without text, got %d", resp.Code)
	}
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	const secret = "test-secret"
	r := setupTestServer(t, secret, staticText("Total 5.00"))
	payload := []byte(`{"text":"Total 5.00"}`)

	resp := performRequest(r, http.MethodPost, "/receipts/extract-text", bytes.NewReader(payload), "", "application/json")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodPost, "/receipts/extract-text", bytes.NewReader(payload), signToken(t, "other-secret", time.Now().Add(time.Hour)), "application/json")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a foreign signature, got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodPost, "/receipts/extract-text", bytes.NewReader(payload), signToken(t, secret, time.Now().Add(-time.Minute)), "application/json")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodPost, "/receipts/extract-text", bytes.NewReader(payload), signToken(t, secret, time.Now().Add(time.Hour)), "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d body=%s", resp.Code, resp.Body.String())
	}
	if resp := performRequest(r, http.MethodGet, "/healthz", nil, "", ""); resp.Code != http.StatusOK {
		t.Fatalf("healthz should stay public, got %d", resp.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[error]int{
		ocr.ErrUnsupportedFileType: http.StatusUnsupportedMediaType,
		ocr.ErrFileTooLarge:        http.StatusRequestEntityTooLarge,
		ocr.ErrDocumentLoad:        http.StatusUnprocessableEntity,
		ocr.ErrRasterization:       http.StatusInternalServerError,
		ocr.ErrCrop:                http.StatusBadRequest,
		ocr.ErrRecognition:         http.StatusBadGateway,
		errors.New("other"):        http.StatusInternalServerError,
	}
	for err, want := range tests {
		if got := statusFor(err); got != want {
			t.Errorf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
