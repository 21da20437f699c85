package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

// multipartOverhead is allowed on top of the file limit for boundaries and region fields.
const multipartOverhead = 1 << 20

func setupRoutes(r *gin.Engine, h *receiptHandler, secret []byte) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	receipts := r.Group("/receipts")
	if len(secret) > 0 {
		receipts.Use(jwtAuthMiddleware(secret))
	}
	receipts.POST("/extract", h.extract)
	receipts.POST("/extract-text", h.extractText)
}

type receiptHandler struct {
	ex       *ocr.Extractor
	maxBytes int64
}

// extract handles a multipart upload: "file" plus optional region fields.
func (h *receiptHandler) extract(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ocr.ErrFileTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ocr.ErrFileTooLarge.Error()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}

	region, err := bindRegion(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	res, err := h.ex.Extract(ctx, data, region)
	if err != nil {
		status := statusFor(err)
		logger.Warn(ctx, "extraction failed", logger.Fields{"file": fh.Filename, "size": fh.Size, "status": status, "error": err.Error()})
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	logger.Info(ctx, "extraction done", logger.Fields{"file": fh.Filename, "amount": res.Amount, "vendor": res.Vendor, "date": res.Date})
	c.JSON(http.StatusOK, res)
}

type extractTextRequest struct {
	Text   string `json:"text" binding:"required"`
	Region bool   `json:"region"`
}

// extractText re-parses text the user already has, skipping recognition.
func (h *receiptHandler) extractText(c *gin.Context) {
	var req extractTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.ex.ExtractText(c.Request.Context(), req.Text, req.Region))
}

// bindRegion returns nil when the form carries no selection; "width" marks one.
func bindRegion(c *gin.Context) (*ocr.SelectionRegion, error) {
	if c.PostForm("width") == "" {
		return nil, nil
	}
	var region ocr.SelectionRegion
	if err := c.ShouldBind(&region); err != nil {
		return nil, err
	}
	return &region, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ocr.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ocr.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ocr.ErrDocumentLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ocr.ErrCrop):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrRecognition):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
