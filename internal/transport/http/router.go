package http

import (
	"errors"
	"net/http"
	"time"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeNoActiveTracker = 40401
	codeInternal        = 50001
)

// NewRouter wires the read-only HTTP API
func NewRouter(renderer service.RendererService, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(recovery(logger))

	r.GET("/health", func(c *gin.Context) {
		success(c, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.GET("/trackers/:id/grid", gridHandler(renderer, logger))

	return r
}

// gridHandler previews the current grid; ?format=text returns it unwrapped
func gridHandler(renderer service.RendererService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		channelID := c.Param("id")

		text, err := renderer.RenderText(c.Request.Context(), channelID)
		if err != nil {
			if errors.Is(err, entity.ErrNoActiveTracker) {
				fail(c, http.StatusNotFound, codeNoActiveTracker, entity.ErrNoActiveTracker.Message)
				return
			}
			logger.Error("Failed to render grid", zap.String("tracker_id", channelID), zap.Error(err))
			fail(c, http.StatusInternalServerError, codeInternal, "An error occurred while rendering the grid.")
			return
		}

		if c.Query("format") == "text" {
			c.String(http.StatusOK, text)
			return
		}
		success(c, gin.H{"tracker_id": channelID, "text": text})
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String(), fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in HTTP handler",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
				)
				fail(c, http.StatusInternalServerError, codeInternal, "An unexpected error occurred.")
				c.Abort()
			}
		}()
		c.Next()
	}
}
