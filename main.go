package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"receiptscan/pkg/config"
	"receiptscan/pkg/logger"
	"receiptscan/pkg/ocr"
)

func main() {
	cfg := config.Load()
	logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ex, err := cfg.Extractor()
	if err != nil {
		logger.Logger().Fatalf("ocr setup: %v", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn(context.Background(), "JWT_SECRET not set, receipt endpoints are unauthenticated", nil)
	}

	r := newRouter(cfg, ex)
	logger.Info(context.Background(), "listening", logger.Fields{"port": cfg.Port, "languages": cfg.Languages})
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Logger().Fatalf("server: %v", err)
	}
}

func newRouter(cfg *config.Config, ex *ocr.Extractor) *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(), requestLogger(), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	h := &receiptHandler{ex: ex, maxBytes: cfg.MaxUploadBytes}
	setupRoutes(r, h, []byte(cfg.JWTSecret))
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
